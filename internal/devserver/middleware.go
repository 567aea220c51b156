package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/koinsera/botadmin/internal/auth"
	"github.com/koinsera/botadmin/internal/models"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

const (
	msgInvalidCredentials = "Could not validate credentials"
	msgInactive           = "Account is inactive"
	msgNoPermission       = "Not enough permissions"
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

// GetSessionData returns the caller set by JWTAuthMiddleware
func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// respondWithError aborts with a {"detail": message} body
func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Int("status", statusCode).Msg(message)
	c.AbortWithStatusJSON(statusCode, gin.H{"detail": message})
}

// respondUnauthorized aborts with a 401 challenge
func respondUnauthorized(c *gin.Context, log zerolog.Logger, err error) {
	c.Header("WWW-Authenticate", "Bearer")
	respondWithError(c, log, http.StatusUnauthorized, err, msgInvalidCredentials)
}

// respondValidation aborts with a 422 listing the rejected fields
func respondValidation(c *gin.Context, err error) {
	type fieldDetail struct {
		Loc  []string `json:"loc"`
		Msg  string   `json:"msg"`
		Type string   `json:"type"`
	}

	var detail []fieldDetail
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			detail = append(detail, fieldDetail{Loc: []string{"body", f.Field}, Msg: f.Message, Type: "value_error"})
		}
	} else {
		detail = append(detail, fieldDetail{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error.jsondecode"})
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": detail})
}

// JWTAuthMiddleware resolves the bearer token to an active user
func JWTAuthMiddleware(db *gorm.DB, issuer *auth.Issuer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondUnauthorized(c, log, err)
			return
		}

		claims, err := issuer.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to validate JWT token")
			respondUnauthorized(c, log, ErrInvalidToken)
			return
		}

		var user User
		if err := db.Where("login = ?", claims.Subject).First(&user).Error; err != nil {
			log.Debug().Err(err).Str("login", claims.Subject).Msg("User not found")
			respondUnauthorized(c, log, ErrUserNotFound)
			return
		}

		if !user.IsActive {
			respondWithError(c, log, http.StatusForbidden, errors.New("inactive user"), msgInactive)
			return
		}

		setSession(c, &auth.SessionData{
			UserID:  user.ID,
			Login:   user.Login,
			IsAdmin: user.IsAdmin,
		})

		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondUnauthorized(c, log, errors.New("no session"))
			return
		}

		if !sessionData.IsAdmin {
			respondWithError(c, log, http.StatusForbidden, errors.New("not admin"), msgNoPermission)
			return
		}

		c.Next()
	}
}

// mustSession returns the caller; routes behind JWTAuthMiddleware always have one
func mustSession(c *gin.Context) *auth.SessionData {
	sessionData, _ := GetSessionData(c)
	if sessionData == nil {
		return &auth.SessionData{}
	}
	return sessionData
}
