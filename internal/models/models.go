package models

import (
	"strings"

	"github.com/koinsera/botadmin/internal/sysinfo"
)

// TokenResponse is returned by the token and registration endpoints
type TokenResponse struct {
	AccessToken string `json:"access_token" validate:"required"`
	TokenType   string `json:"token_type"`
}

// User represents an account on the bot platform
type User struct {
	ID           int        `json:"id" validate:"gt=0"`
	Login        string     `json:"login" validate:"required"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Company      *string    `json:"company"`
	LanguageCode *string    `json:"language_code"`
	IsAdmin      bool       `json:"is_admin"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    Timestamp  `json:"created_at"`
	LastLogin    *Timestamp `json:"last_login"`
}

// DisplayName returns the user's full name, falling back to the login
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Login
	}
	return name
}

// Bot represents a messaging bot registered by a user
type Bot struct {
	ID        int       `json:"bot_id" validate:"gt=0"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"bot_name" validate:"required"`
	Token     string    `json:"bot_token"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Chat represents a messenger chat served by one of the user's bots
type Chat struct {
	ID             int        `json:"chat_id" validate:"gt=0"`
	BotID          int        `json:"bot_id"`
	BotName        *string    `json:"bot_name"`
	UserID         int        `json:"user_id"`
	TelegramChatID TelegramID `json:"telegram_chat_id"`
	Title          *string    `json:"title"`
	TypeID         int        `json:"type_id"`
	StatusID       int        `json:"status_id"`
	UserNum        int        `json:"user_num"`
	UnknownUser    int        `json:"unknown_user"`
	CreatedAt      Timestamp  `json:"created_at"`
	UpdatedAt      Timestamp  `json:"updated_at"`
}

// DisplayTitle returns the chat title or a placeholder for untitled chats
func (c *Chat) DisplayTitle() string {
	if c.Title == nil || *c.Title == "" {
		return "-"
	}
	return *c.Title
}

// Employee represents a person (or bot account) tracked across chats
type Employee struct {
	ID               int         `json:"employee_id" validate:"gt=0"`
	FullName         string      `json:"full_name" validate:"required"`
	TelegramUsername *string     `json:"telegram_username"`
	TelegramUserID   *TelegramID `json:"telegram_user_id"`
	IsActive         bool        `json:"is_active"`
	IsExternal       bool        `json:"is_external"`
	IsBot            bool        `json:"is_bot"`
	UserID           *int        `json:"user_id"`
	CreatedAt        Timestamp   `json:"created_at"`
	UpdatedAt        Timestamp   `json:"updated_at"`
}

// ChatType is an entry of the chat type lookup table
type ChatType struct {
	ID   int    `json:"type_id" validate:"gt=0"`
	Name string `json:"type_name" validate:"required"`
}

// ChatStatus is an entry of the chat status lookup table
type ChatStatus struct {
	ID   int    `json:"status_id" validate:"gt=0"`
	Name string `json:"status_name" validate:"required"`
}

// Participant is an employee's membership in a chat
type Participant struct {
	EmployeeID       int        `json:"employee_id" validate:"gt=0"`
	FullName         string     `json:"full_name"`
	TelegramUsername *string    `json:"telegram_username"`
	IsActive         bool       `json:"is_active"`
	IsExternal       bool       `json:"is_external"`
	IsAdmin          bool       `json:"is_admin"`
	MembershipActive bool       `json:"ce_is_active"`
	CreatedAt        Timestamp  `json:"created_at"`
	UpdatedAt        Timestamp  `json:"updated_at"`
	MembershipAt     *Timestamp `json:"ce_updated_at"`
}

// ParticipantList is the participants endpoint response
type ParticipantList struct {
	ChatTitle    string        `json:"chat_title"`
	Participants []Participant `json:"participants" validate:"dive"`
}

// RecordCounts is the number of stored rows per entity
type RecordCounts struct {
	Users        int64 `json:"users"`
	Bots         int64 `json:"bots"`
	Chats        int64 `json:"chats"`
	Employees    int64 `json:"employees"`
	Participants int64 `json:"participants"`
}

// SystemInfo is the dev server's admin status report
type SystemInfo struct {
	Service       string          `json:"service" validate:"required"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Host          sysinfo.Metrics `json:"host"`
	Records       RecordCounts    `json:"records"`
}
