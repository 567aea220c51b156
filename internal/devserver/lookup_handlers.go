package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/koinsera/botadmin/internal/models"
)

func (s *Server) listChatTypes(c *gin.Context) {
	var types []ChatType
	if err := s.db.Order("id").Find(&types).Error; err != nil {
		s.internalError(c, err, "Failed to list chat types")
		return
	}

	response := make([]models.ChatType, 0, len(types))
	for _, t := range types {
		response = append(response, models.ChatType{ID: t.ID, Name: t.Name})
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) listChatStatuses(c *gin.Context) {
	var statuses []ChatStatus
	if err := s.db.Order("id").Find(&statuses).Error; err != nil {
		s.internalError(c, err, "Failed to list chat statuses")
		return
	}

	response := make([]models.ChatStatus, 0, len(statuses))
	for _, st := range statuses {
		response = append(response, models.ChatStatus{ID: st.ID, Name: st.Name})
	}
	c.JSON(http.StatusOK, response)
}
