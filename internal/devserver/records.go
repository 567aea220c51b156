package devserver

import (
	"time"

	"gorm.io/gorm"

	"github.com/koinsera/botadmin/internal/models"
)

// User is a platform account
type User struct {
	ID           int    `gorm:"primaryKey;autoIncrement"`
	Login        string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string
	LastName     string
	Company      *string
	LanguageCode *string
	IsAdmin      bool
	IsActive     bool
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	LastLogin    *time.Time
}

// Bot is a messaging bot owned by a user
type Bot struct {
	ID        int `gorm:"primaryKey;autoIncrement"`
	UserID    int `gorm:"index;not null"`
	Name      string
	Token     string
	IsActive  bool
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Chat is a messenger chat served by a bot
type Chat struct {
	ID             int `gorm:"primaryKey;autoIncrement"`
	BotID          int `gorm:"index;not null"`
	Bot            *Bot
	UserID         int `gorm:"index;not null"`
	TelegramChatID int64
	Title          *string
	TypeID         int
	StatusID       int
	UserNum        int
	UnknownUser    int
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// Employee is a person tracked across chats
type Employee struct {
	ID               int `gorm:"primaryKey;autoIncrement"`
	UserID           int `gorm:"index;not null"`
	FullName         string
	TelegramUsername *string
	TelegramUserID   *int64
	IsActive         bool
	IsExternal       bool
	IsBot            bool
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// ChatType is an entry of the chat type lookup table
type ChatType struct {
	ID   int `gorm:"primaryKey"`
	Name string
}

// ChatStatus is an entry of the chat status lookup table
type ChatStatus struct {
	ID   int `gorm:"primaryKey"`
	Name string
}

// ChatEmployee is an employee's membership in a chat
type ChatEmployee struct {
	ChatID     int `gorm:"primaryKey"`
	EmployeeID int `gorm:"primaryKey"`
	Employee   Employee
	IsAdmin    bool
	IsActive   bool
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// autoMigrate creates the schema
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Bot{},
		&ChatType{},
		&ChatStatus{},
		&Chat{},
		&Employee{},
		&ChatEmployee{},
	)
}

func timestamp(t time.Time) models.Timestamp {
	return models.Timestamp{Time: t.UTC()}
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := timestamp(*t)
	return &ts
}

func (u *User) toAPI() models.User {
	return models.User{
		ID:           u.ID,
		Login:        u.Login,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Company:      u.Company,
		LanguageCode: u.LanguageCode,
		IsAdmin:      u.IsAdmin,
		IsActive:     u.IsActive,
		CreatedAt:    timestamp(u.CreatedAt),
		LastLogin:    timestampPtr(u.LastLogin),
	}
}

func (b *Bot) toAPI() models.Bot {
	return models.Bot{
		ID:        b.ID,
		UserID:    b.UserID,
		Name:      b.Name,
		Token:     b.Token,
		IsActive:  b.IsActive,
		CreatedAt: timestamp(b.CreatedAt),
		UpdatedAt: timestamp(b.UpdatedAt),
	}
}

func (c *Chat) toAPI() models.Chat {
	chat := models.Chat{
		ID:             c.ID,
		BotID:          c.BotID,
		UserID:         c.UserID,
		TelegramChatID: models.TelegramID(c.TelegramChatID),
		Title:          c.Title,
		TypeID:         c.TypeID,
		StatusID:       c.StatusID,
		UserNum:        c.UserNum,
		UnknownUser:    c.UnknownUser,
		CreatedAt:      timestamp(c.CreatedAt),
		UpdatedAt:      timestamp(c.UpdatedAt),
	}
	if c.Bot != nil {
		name := c.Bot.Name
		chat.BotName = &name
	}
	return chat
}

func (e *Employee) toAPI() models.Employee {
	userID := e.UserID
	employee := models.Employee{
		ID:               e.ID,
		FullName:         e.FullName,
		TelegramUsername: e.TelegramUsername,
		IsActive:         e.IsActive,
		IsExternal:       e.IsExternal,
		IsBot:            e.IsBot,
		UserID:           &userID,
		CreatedAt:        timestamp(e.CreatedAt),
		UpdatedAt:        timestamp(e.UpdatedAt),
	}
	if e.TelegramUserID != nil {
		id := models.TelegramID(*e.TelegramUserID)
		employee.TelegramUserID = &id
	}
	return employee
}

func (m *ChatEmployee) toAPI() models.Participant {
	return models.Participant{
		EmployeeID:       m.EmployeeID,
		FullName:         m.Employee.FullName,
		TelegramUsername: m.Employee.TelegramUsername,
		IsActive:         m.Employee.IsActive,
		IsExternal:       m.Employee.IsExternal,
		IsAdmin:          m.IsAdmin,
		MembershipActive: m.IsActive,
		CreatedAt:        timestamp(m.Employee.CreatedAt),
		UpdatedAt:        timestamp(m.Employee.UpdatedAt),
		MembershipAt:     timestampPtr(&m.UpdatedAt),
	}
}
