package devserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/koinsera/botadmin/internal/models"
)

func (s *Server) listBots(c *gin.Context) {
	session := mustSession(c)

	query := s.db.Order("id")
	if !session.IsAdmin {
		query = query.Where("user_id = ?", session.UserID)
	}

	var bots []Bot
	if err := query.Find(&bots).Error; err != nil {
		s.internalError(c, err, "Failed to list bots")
		return
	}

	response := make([]models.Bot, 0, len(bots))
	for i := range bots {
		response = append(response, bots[i].toAPI())
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) createBot(c *gin.Context) {
	var req models.BotCreate
	if !bindJSON(c, &req) {
		return
	}

	bot := Bot{
		UserID:   mustSession(c).UserID,
		Name:     req.Name,
		Token:    req.Token,
		IsActive: req.IsActive,
	}
	if err := s.db.Create(&bot).Error; err != nil {
		s.internalError(c, err, "Failed to create bot")
		return
	}

	s.logger.Info().Int("bot_id", bot.ID).Str("name", bot.Name).Msg("Bot created")
	c.JSON(http.StatusOK, bot.toAPI())
}

// accessibleBot loads a bot the caller owns, or any bot for admins. It
// responds with 404 or 403 and returns false otherwise.
func (s *Server) accessibleBot(c *gin.Context, id int) (*Bot, bool) {
	var bot Bot
	if err := s.db.First(&bot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(c, s.logger, http.StatusNotFound, err, "Bot not found")
			return nil, false
		}
		s.internalError(c, err, "Failed to load bot")
		return nil, false
	}

	session := mustSession(c)
	if !session.IsAdmin && bot.UserID != session.UserID {
		respondWithError(c, s.logger, http.StatusForbidden, errors.New("foreign bot"), msgNoPermission)
		return nil, false
	}
	return &bot, true
}

func (s *Server) updateBot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.BotUpdate
	if !bindJSON(c, &req) {
		return
	}

	bot, ok := s.accessibleBot(c, id)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Token != nil {
		updates["token"] = *req.Token
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(bot).Updates(updates).Error; err != nil {
			s.internalError(c, err, "Failed to update bot")
			return
		}
		if err := s.db.First(bot, id).Error; err != nil {
			s.internalError(c, err, "Failed to reload bot")
			return
		}
	}

	c.JSON(http.StatusOK, bot.toAPI())
}

func (s *Server) deleteBot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	bot, ok := s.accessibleBot(c, id)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		chatIDs := tx.Model(&Chat{}).Select("id").Where("bot_id = ?", bot.ID)
		if err := tx.Where("chat_id IN (?)", chatIDs).Delete(&ChatEmployee{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bot_id = ?", bot.ID).Delete(&Chat{}).Error; err != nil {
			return err
		}
		return tx.Delete(bot).Error
	})
	if err != nil {
		s.internalError(c, err, "Failed to delete bot")
		return
	}

	s.logger.Info().Int("bot_id", bot.ID).Msg("Bot deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Bot deleted successfully"})
}
