package devserver

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/koinsera/botadmin/internal/auth"
)

var (
	ErrLoginTaken = errors.New("login already registered")
	ErrEmailTaken = errors.New("email already registered")
)

func detailFor(err error) string {
	switch {
	case errors.Is(err, ErrLoginTaken):
		return "Login already registered"
	case errors.Is(err, ErrEmailTaken):
		return "Email already registered"
	}
	return err.Error()
}

// NewUser describes an account to create
type NewUser struct {
	Login        string
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Company      *string
	LanguageCode string
	IsAdmin      bool
	Inactive     bool
}

// CreateUser stores a new account with a hashed password
func (s *Server) CreateUser(u NewUser) (*User, error) {
	var count int64
	if err := s.db.Model(&User{}).Where("login = ?", u.Login).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check login: %w", err)
	}
	if count > 0 {
		return nil, ErrLoginTaken
	}
	if err := s.db.Model(&User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Login:        u.Login,
		Email:        u.Email,
		PasswordHash: hash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Company:      u.Company,
		IsAdmin:      u.IsAdmin,
		IsActive:     !u.Inactive,
	}
	if u.LanguageCode != "" {
		lang := u.LanguageCode
		user.LanguageCode = &lang
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Str("login", user.Login).Bool("admin", user.IsAdmin).Msg("User created")
	return &user, nil
}

// seedLookups loads the chat type and status tables
func (s *Server) seedLookups() error {
	types := []ChatType{
		{ID: 1, Name: "private"},
		{ID: 2, Name: "group"},
		{ID: 3, Name: "supergroup"},
		{ID: 4, Name: "channel"},
	}
	statuses := []ChatStatus{
		{ID: 1, Name: "active"},
		{ID: 2, Name: "paused"},
		{ID: 3, Name: "archived"},
	}

	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&types).Error; err != nil {
		return fmt.Errorf("failed to seed chat types: %w", err)
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&statuses).Error; err != nil {
		return fmt.Errorf("failed to seed chat statuses: %w", err)
	}
	return nil
}

// Demo account credentials loaded by SeedDemo
const (
	DemoAdminLogin    = "admin"
	DemoAdminPassword = "Admin123!"
	DemoUserLogin     = "alice"
	DemoUserPassword  = "Secret123!"
)

// SeedDemo creates an admin, a regular user and a small set of records
// owned by the regular user.
func (s *Server) SeedDemo() error {
	var count int64
	if err := s.db.Model(&User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		s.logger.Debug().Msg("Database already has users, skipping demo data")
		return nil
	}

	if _, err := s.CreateUser(NewUser{
		Login:        DemoAdminLogin,
		Email:        "admin@example.com",
		Password:     DemoAdminPassword,
		FirstName:    "Platform",
		LastName:     "Admin",
		LanguageCode: "en",
		IsAdmin:      true,
	}); err != nil {
		return err
	}

	company := "Acme"
	alice, err := s.CreateUser(NewUser{
		Login:        DemoUserLogin,
		Email:        "alice@example.com",
		Password:     DemoUserPassword,
		FirstName:    "Alice",
		LastName:     "Smith",
		Company:      &company,
		LanguageCode: "en",
	})
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		bots := []Bot{
			{UserID: alice.ID, Name: "support_bot", Token: "123456:AAE-support-token-example", IsActive: true},
			{UserID: alice.ID, Name: "sales_bot", Token: "654321:AAF-sales-token-example", IsActive: false},
		}
		if err := tx.Create(&bots).Error; err != nil {
			return fmt.Errorf("failed to seed bots: %w", err)
		}

		support, sales := "Support team", "Sales leads"
		chats := []Chat{
			{BotID: bots[0].ID, UserID: alice.ID, TelegramChatID: -1001000000001, Title: &support, TypeID: 3, StatusID: 1, UserNum: 2},
			{BotID: bots[1].ID, UserID: alice.ID, TelegramChatID: -1001000000002, Title: &sales, TypeID: 2, StatusID: 2, UserNum: 1, UnknownUser: 1},
		}
		if err := tx.Create(&chats).Error; err != nil {
			return fmt.Errorf("failed to seed chats: %w", err)
		}

		bob, carol := "bob", "carol"
		bobID, carolID := int64(500001), int64(500002)
		employees := []Employee{
			{UserID: alice.ID, FullName: "Bob Jones", TelegramUsername: &bob, TelegramUserID: &bobID, IsActive: true},
			{UserID: alice.ID, FullName: "Carol White", TelegramUsername: &carol, TelegramUserID: &carolID, IsActive: true, IsExternal: true},
		}
		if err := tx.Create(&employees).Error; err != nil {
			return fmt.Errorf("failed to seed employees: %w", err)
		}

		members := []ChatEmployee{
			{ChatID: chats[0].ID, EmployeeID: employees[0].ID, IsAdmin: true, IsActive: true},
			{ChatID: chats[0].ID, EmployeeID: employees[1].ID, IsActive: true},
			{ChatID: chats[1].ID, EmployeeID: employees[1].ID, IsActive: false},
		}
		if err := tx.Omit("Employee").Create(&members).Error; err != nil {
			return fmt.Errorf("failed to seed participants: %w", err)
		}

		s.logger.Info().
			Int("bots", len(bots)).
			Int("chats", len(chats)).
			Int("employees", len(employees)).
			Msg("Demo data loaded")
		return nil
	})
}

// AddParticipant puts an employee into a chat
func (s *Server) AddParticipant(chatID, employeeID int, isAdmin bool) error {
	member := ChatEmployee{ChatID: chatID, EmployeeID: employeeID, IsAdmin: isAdmin, IsActive: true}
	if err := s.db.Omit("Employee").Create(&member).Error; err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}
