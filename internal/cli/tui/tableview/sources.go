package tableview

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/cli/tui/messages"
	"github.com/koinsera/botadmin/internal/models"
)

// Flag names shared by the toggles below
const (
	FlagAdmin    = "admin"
	FlagActive   = "active"
	FlagExternal = "external"
	FlagBot      = "bot"
	FlagMember   = "member"
)

var (
	adminKey    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle admin"))
	activeKey   = key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle active"))
	externalKey = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "toggle external"))
	botKey      = key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "toggle bot"))
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func text(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// Users lists all accounts; admins only
func Users() Source {
	return Source{
		Name:  "users",
		Title: "Users",
		Columns: []table.Column{
			{Title: "ID", Width: 5},
			{Title: "Login", Width: 16},
			{Title: "Name", Width: 24},
			{Title: "Email", Width: 28},
			{Title: "Admin", Width: 6},
			{Title: "Active", Width: 6},
			{Title: "Last login", Width: 16},
		},
		Load: func(ctx context.Context, api *client.Client) (Page, error) {
			users, err := api.ListUsers(ctx)
			if err != nil {
				return Page{}, err
			}
			records := make([]Record, len(users))
			for i := range users {
				u := &users[i]
				lastLogin := "-"
				if u.LastLogin != nil {
					lastLogin = u.LastLogin.String()
				}
				records[i] = Record{
					ID: u.ID,
					Cells: table.Row{
						strconv.Itoa(u.ID), u.Login, u.DisplayName(), u.Email,
						yesNo(u.IsAdmin), yesNo(u.IsActive), lastLogin,
					},
					Flags: map[string]bool{FlagAdmin: u.IsAdmin, FlagActive: u.IsActive},
				}
			}
			return Page{Records: records}, nil
		},
		Toggles: []Toggle{
			{Key: adminKey, Flag: FlagAdmin, Apply: func(ctx context.Context, api *client.Client, r Record, v bool) error {
				return api.UpdateUser(ctx, r.ID, models.UserUpdate{IsAdmin: &v})
			}},
			{Key: activeKey, Flag: FlagActive, Apply: func(ctx context.Context, api *client.Client, r Record, v bool) error {
				return api.UpdateUser(ctx, r.ID, models.UserUpdate{IsActive: &v})
			}},
		},
	}
}

// Bots lists the caller's bots
func Bots() Source {
	return Source{
		Name:  "bots",
		Title: "Bots",
		Columns: []table.Column{
			{Title: "ID", Width: 5},
			{Title: "Name", Width: 28},
			{Title: "Active", Width: 6},
			{Title: "Created", Width: 16},
			{Title: "Updated", Width: 16},
		},
		Load: func(ctx context.Context, api *client.Client) (Page, error) {
			bots, err := api.ListBots(ctx)
			if err != nil {
				return Page{}, err
			}
			records := make([]Record, len(bots))
			for i := range bots {
				b := &bots[i]
				records[i] = Record{
					ID: b.ID,
					Cells: table.Row{
						strconv.Itoa(b.ID), b.Name, yesNo(b.IsActive),
						b.CreatedAt.String(), b.UpdatedAt.String(),
					},
					Flags: map[string]bool{FlagActive: b.IsActive},
				}
			}
			return Page{Records: records}, nil
		},
		Toggles: []Toggle{
			{Key: activeKey, Flag: FlagActive, Apply: func(ctx context.Context, api *client.Client, r Record, v bool) error {
				return api.UpdateBot(ctx, r.ID, models.BotUpdate{IsActive: &v})
			}},
		},
	}
}

// Chats lists chats with lookup names resolved. Enter opens participants.
func Chats() Source {
	return Source{
		Name:  "chats",
		Title: "Chats",
		Columns: []table.Column{
			{Title: "ID", Width: 5},
			{Title: "Title", Width: 28},
			{Title: "Bot", Width: 16},
			{Title: "Type", Width: 12},
			{Title: "Status", Width: 12},
			{Title: "Members", Width: 7},
			{Title: "Unknown", Width: 7},
		},
		Load: func(ctx context.Context, api *client.Client) (Page, error) {
			page, err := api.LoadChatsPage(ctx)
			if err != nil {
				return Page{}, err
			}
			records := make([]Record, len(page.Chats))
			for i := range page.Chats {
				c := &page.Chats[i]
				bot := page.Bots.Name(c.BotID)
				if c.BotName != nil && *c.BotName != "" {
					bot = *c.BotName
				}
				records[i] = Record{
					ID: c.ID,
					Cells: table.Row{
						strconv.Itoa(c.ID), c.DisplayTitle(), bot,
						page.Types.Name(c.TypeID), page.Statuses.Name(c.StatusID),
						strconv.Itoa(c.UserNum), strconv.Itoa(c.UnknownUser),
					},
				}
			}
			return Page{Records: records}, nil
		},
		Open: func(r Record) tea.Msg {
			return messages.OpenParticipantsMsg{ChatID: r.ID, Title: r.Cells[1]}
		},
	}
}

// Employees lists employees
func Employees() Source {
	return Source{
		Name:  "employees",
		Title: "Employees",
		Columns: []table.Column{
			{Title: "ID", Width: 5},
			{Title: "Name", Width: 28},
			{Title: "Username", Width: 18},
			{Title: "Active", Width: 6},
			{Title: "External", Width: 8},
			{Title: "Bot", Width: 4},
		},
		Load: func(ctx context.Context, api *client.Client) (Page, error) {
			employees, err := api.ListEmployees(ctx)
			if err != nil {
				return Page{}, err
			}
			records := make([]Record, len(employees))
			for i := range employees {
				e := &employees[i]
				records[i] = Record{
					ID: e.ID,
					Cells: table.Row{
						strconv.Itoa(e.ID), e.FullName, text(e.TelegramUsername),
						yesNo(e.IsActive), yesNo(e.IsExternal), yesNo(e.IsBot),
					},
					Flags: map[string]bool{
						FlagActive:   e.IsActive,
						FlagExternal: e.IsExternal,
						FlagBot:      e.IsBot,
					},
				}
			}
			return Page{Records: records}, nil
		},
		Toggles: []Toggle{
			{Key: activeKey, Flag: FlagActive, Apply: func(ctx context.Context, api *client.Client, r Record, v bool) error {
				return api.UpdateEmployee(ctx, r.ID, models.EmployeeUpdate{IsActive: &v})
			}},
			{Key: externalKey, Flag: FlagExternal, Apply: func(ctx context.Context, api *client.Client, r Record, v bool) error {
				return api.UpdateEmployee(ctx, r.ID, models.EmployeeUpdate{IsExternal: &v})
			}},
			{Key: botKey, Flag: FlagBot, Apply: func(ctx context.Context, api *client.Client, r Record, v bool) error {
				return api.UpdateEmployee(ctx, r.ID, models.EmployeeUpdate{IsBot: &v})
			}},
		},
	}
}

// Participants lists one chat's members
func Participants(chatID int) Source {
	return Source{
		Name:  fmt.Sprintf("participants-%d", chatID),
		Title: fmt.Sprintf("Chat #%d participants", chatID),
		Columns: []table.Column{
			{Title: "ID", Width: 5},
			{Title: "Name", Width: 28},
			{Title: "Username", Width: 18},
			{Title: "Admin", Width: 6},
			{Title: "Member", Width: 6},
			{Title: "External", Width: 8},
			{Title: "Since", Width: 16},
		},
		Load: func(ctx context.Context, api *client.Client) (Page, error) {
			list, err := api.ListParticipants(ctx, chatID)
			if err != nil {
				return Page{}, err
			}
			records := make([]Record, len(list.Participants))
			for i := range list.Participants {
				p := &list.Participants[i]
				since := "-"
				if p.MembershipAt != nil {
					since = p.MembershipAt.String()
				}
				records[i] = Record{
					ID: p.EmployeeID,
					Cells: table.Row{
						strconv.Itoa(p.EmployeeID), p.FullName, text(p.TelegramUsername),
						yesNo(p.IsAdmin), yesNo(p.MembershipActive), yesNo(p.IsExternal), since,
					},
					Flags: map[string]bool{FlagAdmin: p.IsAdmin, FlagMember: p.MembershipActive},
				}
			}
			title := ""
			if list.ChatTitle != "" {
				title = list.ChatTitle + " participants"
			}
			return Page{Title: title, Records: records}, nil
		},
		Toggles: []Toggle{
			{Key: adminKey, Flag: FlagAdmin, Apply: func(ctx context.Context, api *client.Client, r Record, v bool) error {
				return api.UpdateParticipant(ctx, chatID, r.ID, models.ParticipantUpdate{IsAdmin: &v})
			}},
			{Key: activeKey, Flag: FlagMember, Apply: func(ctx context.Context, api *client.Client, r Record, v bool) error {
				return api.UpdateParticipant(ctx, chatID, r.ID, models.ParticipantUpdate{MembershipActive: &v})
			}},
		},
	}
}
