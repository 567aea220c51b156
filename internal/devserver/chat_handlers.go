package devserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/koinsera/botadmin/internal/models"
)

func (s *Server) listChats(c *gin.Context) {
	var chats []Chat
	err := s.db.Preload("Bot").
		Where("user_id = ?", mustSession(c).UserID).
		Order("id").
		Find(&chats).Error
	if err != nil {
		s.internalError(c, err, "Failed to list chats")
		return
	}

	response := make([]models.Chat, 0, len(chats))
	for i := range chats {
		response = append(response, chats[i].toAPI())
	}
	c.JSON(http.StatusOK, response)
}

// checkLookups responds with 400 when a chat type or status id is unknown
func (s *Server) checkLookups(c *gin.Context, typeID, statusID *int) bool {
	if typeID != nil {
		var count int64
		if err := s.db.Model(&ChatType{}).Where("id = ?", *typeID).Count(&count).Error; err != nil {
			s.internalError(c, err, "Failed to check chat type")
			return false
		}
		if count == 0 {
			respondWithError(c, s.logger, http.StatusBadRequest, errors.New("unknown chat type"), "Unknown chat type")
			return false
		}
	}
	if statusID != nil {
		var count int64
		if err := s.db.Model(&ChatStatus{}).Where("id = ?", *statusID).Count(&count).Error; err != nil {
			s.internalError(c, err, "Failed to check chat status")
			return false
		}
		if count == 0 {
			respondWithError(c, s.logger, http.StatusBadRequest, errors.New("unknown chat status"), "Unknown chat status")
			return false
		}
	}
	return true
}

func (s *Server) createChat(c *gin.Context) {
	var req models.ChatCreate
	if !bindJSON(c, &req) {
		return
	}

	if _, ok := s.accessibleBot(c, req.BotID); !ok {
		return
	}
	if !s.checkLookups(c, &req.TypeID, &req.StatusID) {
		return
	}

	chat := Chat{
		BotID:          req.BotID,
		UserID:         mustSession(c).UserID,
		TelegramChatID: int64(req.TelegramChatID),
		Title:          req.Title,
		TypeID:         req.TypeID,
		StatusID:       req.StatusID,
	}
	if err := s.db.Create(&chat).Error; err != nil {
		s.internalError(c, err, "Failed to create chat")
		return
	}
	if err := s.db.Preload("Bot").First(&chat, chat.ID).Error; err != nil {
		s.internalError(c, err, "Failed to reload chat")
		return
	}

	s.logger.Info().Int("chat_id", chat.ID).Int64("telegram_chat_id", chat.TelegramChatID).Msg("Chat created")
	c.JSON(http.StatusOK, chat.toAPI())
}

// ownChat loads one of the caller's chats
func (s *Server) ownChat(c *gin.Context, id int) (*Chat, error) {
	var chat Chat
	err := s.db.Preload("Bot").
		Where("id = ? AND user_id = ?", id, mustSession(c).UserID).
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// updateChat answers a missing chat with 200 and an error envelope, the way
// the platform backend does.
func (s *Server) updateChat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.ChatUpdate
	if !bindJSON(c, &req) {
		return
	}

	chat, err := s.ownChat(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": "Chat not found"})
			return
		}
		s.internalError(c, err, "Failed to load chat")
		return
	}

	if req.BotID != nil {
		if _, ok := s.accessibleBot(c, *req.BotID); !ok {
			return
		}
	}
	if !s.checkLookups(c, req.TypeID, req.StatusID) {
		return
	}

	updates := map[string]interface{}{}
	if req.BotID != nil {
		updates["bot_id"] = *req.BotID
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.TypeID != nil {
		updates["type_id"] = *req.TypeID
	}
	if req.StatusID != nil {
		updates["status_id"] = *req.StatusID
	}

	if len(updates) > 0 {
		if err := s.db.Model(&Chat{ID: chat.ID}).Updates(updates).Error; err != nil {
			s.internalError(c, err, "Failed to update chat")
			return
		}
		if chat, err = s.ownChat(c, id); err != nil {
			s.internalError(c, err, "Failed to reload chat")
			return
		}
	}

	c.JSON(http.StatusOK, chat.toAPI())
}

func (s *Server) deleteChat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	chat, ok := s.chatOr404(c, id)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chat.ID).Delete(&ChatEmployee{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Chat{ID: chat.ID}).Error
	})
	if err != nil {
		s.internalError(c, err, "Failed to delete chat")
		return
	}

	s.logger.Info().Int("chat_id", chat.ID).Msg("Chat deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted successfully"})
}

// chatOr404 loads one of the caller's chats or responds with 404
func (s *Server) chatOr404(c *gin.Context, id int) (*Chat, bool) {
	chat, err := s.ownChat(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(c, s.logger, http.StatusNotFound, err, "Chat not found")
			return nil, false
		}
		s.internalError(c, err, "Failed to load chat")
		return nil, false
	}
	return chat, true
}

func (s *Server) listParticipants(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	chat, ok := s.chatOr404(c, id)
	if !ok {
		return
	}

	var members []ChatEmployee
	err := s.db.Preload("Employee").
		Where("chat_id = ?", chat.ID).
		Order("employee_id").
		Find(&members).Error
	if err != nil {
		s.internalError(c, err, "Failed to list participants")
		return
	}

	response := models.ParticipantList{
		Participants: make([]models.Participant, 0, len(members)),
	}
	if chat.Title != nil {
		response.ChatTitle = *chat.Title
	}
	for i := range members {
		response.Participants = append(response.Participants, members[i].toAPI())
	}
	c.JSON(http.StatusOK, response)
}

// participant loads a membership of one of the caller's chats
func (s *Server) participant(c *gin.Context) (*Chat, *ChatEmployee, bool) {
	chatID, ok := pathID(c, "id")
	if !ok {
		return nil, nil, false
	}
	employeeID, ok := pathID(c, "employee")
	if !ok {
		return nil, nil, false
	}

	chat, ok := s.chatOr404(c, chatID)
	if !ok {
		return nil, nil, false
	}

	var member ChatEmployee
	err := s.db.Preload("Employee").
		Where("chat_id = ? AND employee_id = ?", chatID, employeeID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(c, s.logger, http.StatusNotFound, err, "Participant not found")
			return nil, nil, false
		}
		s.internalError(c, err, "Failed to load participant")
		return nil, nil, false
	}
	return chat, &member, true
}

func (s *Server) updateParticipant(c *gin.Context) {
	var req models.ParticipantUpdate
	if !bindJSON(c, &req) {
		return
	}

	chat, member, ok := s.participant(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.IsAdmin != nil {
		updates["is_admin"] = *req.IsAdmin
	}
	if req.MembershipActive != nil {
		updates["is_active"] = *req.MembershipActive
	}

	if len(updates) > 0 {
		err := s.db.Model(&ChatEmployee{}).
			Where("chat_id = ? AND employee_id = ?", chat.ID, member.EmployeeID).
			Updates(updates).Error
		if err != nil {
			s.internalError(c, err, "Failed to update participant")
			return
		}
		err = s.db.Preload("Employee").
			Where("chat_id = ? AND employee_id = ?", chat.ID, member.EmployeeID).
			First(member).Error
		if err != nil {
			s.internalError(c, err, "Failed to reload participant")
			return
		}
	}

	c.JSON(http.StatusOK, member.toAPI())
}

func (s *Server) removeParticipant(c *gin.Context) {
	chat, member, ok := s.participant(c)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("chat_id = ? AND employee_id = ?", chat.ID, member.EmployeeID).
			Delete(&ChatEmployee{}).Error
		if err != nil {
			return err
		}
		return tx.Model(&Chat{ID: chat.ID}).
			Update("user_num", gorm.Expr("MAX(user_num - 1, 0)")).Error
	})
	if err != nil {
		s.internalError(c, err, "Failed to remove participant")
		return
	}

	s.logger.Info().Int("chat_id", chat.ID).Int("employee_id", member.EmployeeID).Msg("Participant removed")
	c.JSON(http.StatusOK, gin.H{"message": "Participant removed"})
}
