package client

import (
	"context"
	"fmt"

	"github.com/koinsera/botadmin/internal/models"
)

// ListUsers returns all accounts. Requires admin rights.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	return getList[models.User](ctx, c, "list users", "/api/admin/users")
}

// UpdateUser changes another account. Requires admin rights.
func (c *Client) UpdateUser(ctx context.Context, id int, update models.UserUpdate) error {
	return c.update(ctx, "update user", fmt.Sprintf("/api/admin/users/%d", id), update)
}

// SystemInfo returns the backend status report. Only the dev server
// provides it; requires admin rights.
func (c *Client) SystemInfo(ctx context.Context) (*models.SystemInfo, error) {
	return getOne[models.SystemInfo](ctx, c, "fetch system info", "/api/admin/system")
}

// ListBots returns the caller's bots
func (c *Client) ListBots(ctx context.Context) ([]models.Bot, error) {
	return getList[models.Bot](ctx, c, "list bots", "/api/bots")
}

// CreateBot registers a bot
func (c *Client) CreateBot(ctx context.Context, bot models.BotCreate) (*models.Bot, error) {
	return create[models.Bot](ctx, c, "create bot", "/api/bots", bot)
}

// UpdateBot changes a bot
func (c *Client) UpdateBot(ctx context.Context, id int, update models.BotUpdate) error {
	return c.update(ctx, "update bot", fmt.Sprintf("/api/bots/%d", id), update)
}

// DeleteBot removes a bot
func (c *Client) DeleteBot(ctx context.Context, id int) error {
	return c.remove(ctx, "delete bot", fmt.Sprintf("/api/bots/%d", id))
}

// ListChats returns the caller's chats
func (c *Client) ListChats(ctx context.Context) ([]models.Chat, error) {
	return getList[models.Chat](ctx, c, "list chats", "/api/chats")
}

// CreateChat adds a chat
func (c *Client) CreateChat(ctx context.Context, chat models.ChatCreate) (*models.Chat, error) {
	return create[models.Chat](ctx, c, "create chat", "/api/chats", chat)
}

// UpdateChat changes a chat
func (c *Client) UpdateChat(ctx context.Context, id int, update models.ChatUpdate) error {
	return c.update(ctx, "update chat", fmt.Sprintf("/api/chats/%d", id), update)
}

// DeleteChat removes a chat
func (c *Client) DeleteChat(ctx context.Context, id int) error {
	return c.remove(ctx, "delete chat", fmt.Sprintf("/api/chats/%d", id))
}

// ListEmployees returns the caller's employees
func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	return getList[models.Employee](ctx, c, "list employees", "/api/employees")
}

// CreateEmployee adds an employee
func (c *Client) CreateEmployee(ctx context.Context, employee models.EmployeeCreate) (*models.Employee, error) {
	return create[models.Employee](ctx, c, "create employee", "/api/employees", employee)
}

// UpdateEmployee changes an employee
func (c *Client) UpdateEmployee(ctx context.Context, id int, update models.EmployeeUpdate) error {
	return c.update(ctx, "update employee", fmt.Sprintf("/api/employees/%d", id), update)
}

// DeleteEmployee removes an employee
func (c *Client) DeleteEmployee(ctx context.Context, id int) error {
	return c.remove(ctx, "delete employee", fmt.Sprintf("/api/employees/%d", id))
}

// ListChatTypes returns the chat type lookup table
func (c *Client) ListChatTypes(ctx context.Context) ([]models.ChatType, error) {
	return getList[models.ChatType](ctx, c, "list chat types", "/api/chat_types")
}

// ListChatStatuses returns the chat status lookup table
func (c *Client) ListChatStatuses(ctx context.Context) ([]models.ChatStatus, error) {
	return getList[models.ChatStatus](ctx, c, "list chat statuses", "/api/chat_statuses")
}

// ListParticipants returns the members of a chat
func (c *Client) ListParticipants(ctx context.Context, chatID int) (*models.ParticipantList, error) {
	list, err := getOne[models.ParticipantList](ctx, c, "list participants", fmt.Sprintf("/api/chats/%d/participants", chatID))
	if err != nil {
		return nil, err
	}
	if list.Participants == nil {
		list.Participants = []models.Participant{}
	}
	return list, nil
}

// UpdateParticipant changes an employee's membership in a chat
func (c *Client) UpdateParticipant(ctx context.Context, chatID, employeeID int, update models.ParticipantUpdate) error {
	return c.update(ctx, "update participant", fmt.Sprintf("/api/chats/%d/participants/%d", chatID, employeeID), update)
}

// RemoveParticipant removes an employee from a chat
func (c *Client) RemoveParticipant(ctx context.Context, chatID, employeeID int) error {
	return c.remove(ctx, "remove participant", fmt.Sprintf("/api/chats/%d/participants/%d", chatID, employeeID))
}
