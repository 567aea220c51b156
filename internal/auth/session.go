package auth

// SessionData represents the authenticated caller of a request
type SessionData struct {
	UserID  int    `json:"user_id"`
	Login   string `json:"login"`
	IsAdmin bool   `json:"is_admin"`
}
