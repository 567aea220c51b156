package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/koinsera/botadmin/internal/auth"
	"github.com/koinsera/botadmin/internal/models"
)

const msgBadCredentials = "Incorrect username or password"

// dummyHash keeps failed logins for unknown users as slow as real ones
var dummyHash, _ = auth.HashPassword("dummy-password-for-timing")

// bindJSON decodes and validates the request body. It responds with 422
// and returns false on failure.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondValidation(c, err)
		return false
	}
	if err := models.Validate(v); err != nil {
		respondValidation(c, err)
		return false
	}
	return true
}

// pathID parses a positive integer path parameter
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{
			"loc":  []string{"path", name},
			"msg":  "value is not a valid integer",
			"type": "type_error.integer",
		}}})
		return 0, false
	}
	return id, true
}

func (s *Server) internalError(c *gin.Context, err error, message string) {
	s.logger.Error().Err(err).Msg(message)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

// issueToken exchanges form credentials for an access token
func (s *Server) issueToken(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		respondValidation(c, &models.ValidationError{Fields: []models.FieldError{
			{Field: "username", Message: "is required"},
			{Field: "password", Message: "is required"},
		}})
		return
	}

	var user User
	err := s.db.Where("login = ? OR email = ?", username, username).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.internalError(c, err, "Failed to load user")
			return
		}
		_ = auth.VerifyPassword(password, dummyHash)
		respondUnauthorizedMessage(c, s, msgBadCredentials)
		return
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		respondUnauthorizedMessage(c, s, msgBadCredentials)
		return
	}

	if !user.IsActive {
		respondWithError(c, s.logger, http.StatusForbidden, errors.New("inactive user"), msgInactive)
		return
	}

	now := time.Now().UTC()
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		s.logger.Warn().Err(err).Str("login", user.Login).Msg("Failed to record last login")
	}

	s.respondWithToken(c, user.Login)
}

func respondUnauthorizedMessage(c *gin.Context, s *Server, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	respondWithError(c, s.logger, http.StatusUnauthorized, errors.New("bad credentials"), message)
}

func (s *Server) respondWithToken(c *gin.Context, login string) {
	token, err := s.issuer.GenerateToken(login)
	if err != nil {
		s.internalError(c, err, "Failed to generate token")
		return
	}

	s.logger.Info().Str("login", login).Msg("Issued access token")
	c.JSON(http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// register creates an account and logs it in
func (s *Server) register(c *gin.Context) {
	var req models.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	req.ApplyDefaults()
	if err := models.Validate(&req); err != nil {
		respondValidation(c, err)
		return
	}

	if _, err := s.CreateUser(NewUser{
		Login:        req.Login,
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Company:      req.Company,
		LanguageCode: req.LanguageCode,
	}); err != nil {
		if errors.Is(err, ErrLoginTaken) || errors.Is(err, ErrEmailTaken) {
			respondWithError(c, s.logger, http.StatusBadRequest, err, detailFor(err))
			return
		}
		s.internalError(c, err, "Failed to create user")
		return
	}

	s.respondWithToken(c, req.Login)
}

// getCurrentUser returns the caller's profile
func (s *Server) getCurrentUser(c *gin.Context) {
	var user User
	if err := s.db.First(&user, mustSession(c).UserID).Error; err != nil {
		s.internalError(c, err, "Failed to load current user")
		return
	}
	c.JSON(http.StatusOK, user.toAPI())
}

// updateProfile changes the caller's own profile
func (s *Server) updateProfile(c *gin.Context) {
	var req models.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}

	session := mustSession(c)
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.LanguageCode != nil {
		updates["language_code"] = *req.LanguageCode
	}
	if req.Email != nil {
		var count int64
		if err := s.db.Model(&User{}).Where("email = ? AND id <> ?", *req.Email, session.UserID).Count(&count).Error; err != nil {
			s.internalError(c, err, "Failed to check email")
			return
		}
		if count > 0 {
			respondWithError(c, s.logger, http.StatusBadRequest, ErrEmailTaken, detailFor(ErrEmailTaken))
			return
		}
		updates["email"] = *req.Email
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.internalError(c, err, "Failed to hash password")
			return
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := s.db.Model(&User{ID: session.UserID}).Updates(updates).Error; err != nil {
			s.internalError(c, err, "Failed to update profile")
			return
		}
	}

	s.logger.Info().Str("login", session.Login).Int("fields", len(updates)).Msg("Profile updated")
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// listUsers returns every account
func (s *Server) listUsers(c *gin.Context) {
	var users []User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		s.internalError(c, err, "Failed to list users")
		return
	}

	response := make([]models.User, 0, len(users))
	for i := range users {
		response = append(response, users[i].toAPI())
	}
	c.JSON(http.StatusOK, response)
}

// updateUser changes another account's flags or password
func (s *Server) updateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UserUpdate
	if !bindJSON(c, &req) {
		return
	}

	var user User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(c, s.logger, http.StatusNotFound, err, "User not found")
			return
		}
		s.internalError(c, err, "Failed to load user")
		return
	}

	updates := map[string]interface{}{}
	if req.IsAdmin != nil {
		updates["is_admin"] = *req.IsAdmin
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.internalError(c, err, "Failed to hash password")
			return
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			s.internalError(c, err, "Failed to update user")
			return
		}
		if err := s.db.First(&user, id).Error; err != nil {
			s.internalError(c, err, "Failed to reload user")
			return
		}
	}

	s.logger.Info().
		Str("admin", mustSession(c).Login).
		Str("login", user.Login).
		Msg("User updated")
	c.JSON(http.StatusOK, user.toAPI())
}
