package models

// Update and create payloads. Pointer fields with omitempty carry only the
// fields the caller changed; a nil field is left untouched by the backend.

// DefaultLanguage is used when a registration omits the language code
const DefaultLanguage = "en"

// Registration is the self-service sign-up payload
type Registration struct {
	Login        string  `json:"login" validate:"required,min=3,max=50,alphanum"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,strongpassword"`
	FirstName    string  `json:"first_name" validate:"required,max=50"`
	LastName     string  `json:"last_name" validate:"required,max=50"`
	Company      *string `json:"company,omitempty" validate:"omitempty,max=100"`
	LanguageCode string  `json:"language_code" validate:"omitempty,min=2,max=10"`
}

// ApplyDefaults fills optional fields the backend expects
func (r *Registration) ApplyDefaults() {
	if r.LanguageCode == "" {
		r.LanguageCode = DefaultLanguage
	}
}

// UserUpdate is the admin payload for changing another account
type UserUpdate struct {
	IsAdmin  *bool   `json:"is_admin,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// IsEmpty reports whether no field is set
func (u UserUpdate) IsEmpty() bool {
	return u.IsAdmin == nil && u.IsActive == nil && u.Password == nil
}

// ProfileUpdate is the payload for changing the caller's own profile
type ProfileUpdate struct {
	FirstName    *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=50"`
	LastName     *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=50"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Company      *string `json:"company,omitempty" validate:"omitempty,max=100"`
	LanguageCode *string `json:"language_code,omitempty" validate:"omitempty,min=2,max=10"`
	Password     *string `json:"password,omitempty" validate:"omitempty,min=8,lettersdigits"`
}

// IsEmpty reports whether no field is set
func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.Company == nil && p.LanguageCode == nil && p.Password == nil
}

// BotCreate is the payload for registering a bot
type BotCreate struct {
	Name     string `json:"bot_name" validate:"required,max=100"`
	Token    string `json:"bot_token" validate:"required"`
	IsActive bool   `json:"is_active"`
}

// BotUpdate changes a bot
type BotUpdate struct {
	Name     *string `json:"bot_name,omitempty" validate:"omitempty,min=1,max=100"`
	Token    *string `json:"bot_token,omitempty" validate:"omitempty,min=1"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// IsEmpty reports whether no field is set
func (b BotUpdate) IsEmpty() bool {
	return b.Name == nil && b.Token == nil && b.IsActive == nil
}

// ChatCreate is the payload for adding a chat
type ChatCreate struct {
	BotID          int        `json:"bot_id" validate:"gt=0"`
	TelegramChatID TelegramID `json:"telegram_chat_id" validate:"ne=0"`
	Title          *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	TypeID         int        `json:"type_id" validate:"gt=0"`
	StatusID       int        `json:"status_id" validate:"gt=0"`
}

// ChatUpdate changes a chat
type ChatUpdate struct {
	BotID    *int    `json:"bot_id,omitempty" validate:"omitempty,gt=0"`
	Title    *string `json:"title,omitempty" validate:"omitempty,max=255"`
	TypeID   *int    `json:"type_id,omitempty" validate:"omitempty,gt=0"`
	StatusID *int    `json:"status_id,omitempty" validate:"omitempty,gt=0"`
}

// IsEmpty reports whether no field is set
func (c ChatUpdate) IsEmpty() bool {
	return c.BotID == nil && c.Title == nil && c.TypeID == nil && c.StatusID == nil
}

// EmployeeCreate is the payload for adding an employee
type EmployeeCreate struct {
	FullName         string      `json:"full_name" validate:"required,max=255"`
	TelegramUsername *string     `json:"telegram_username,omitempty" validate:"omitempty,max=64"`
	TelegramUserID   *TelegramID `json:"telegram_user_id,omitempty"`
	IsActive         bool        `json:"is_active"`
	IsExternal       bool        `json:"is_external"`
	IsBot            bool        `json:"is_bot"`
}

// EmployeeUpdate changes an employee
type EmployeeUpdate struct {
	FullName         *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=255"`
	TelegramUsername *string `json:"telegram_username,omitempty" validate:"omitempty,max=64"`
	IsActive         *bool   `json:"is_active,omitempty"`
	IsExternal       *bool   `json:"is_external,omitempty"`
	IsBot            *bool   `json:"is_bot,omitempty"`
}

// IsEmpty reports whether no field is set
func (e EmployeeUpdate) IsEmpty() bool {
	return e.FullName == nil && e.TelegramUsername == nil && e.IsActive == nil &&
		e.IsExternal == nil && e.IsBot == nil
}

// ParticipantUpdate changes an employee's membership in a chat
type ParticipantUpdate struct {
	IsAdmin          *bool `json:"is_admin,omitempty"`
	MembershipActive *bool `json:"ce_is_active,omitempty"`
}

// IsEmpty reports whether no field is set
func (p ParticipantUpdate) IsEmpty() bool {
	return p.IsAdmin == nil && p.MembershipActive == nil
}
