package devserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/koinsera/botadmin/internal/models"
)

func (s *Server) listEmployees(c *gin.Context) {
	var employees []Employee
	err := s.db.Where("user_id = ?", mustSession(c).UserID).Order("id").Find(&employees).Error
	if err != nil {
		s.internalError(c, err, "Failed to list employees")
		return
	}

	response := make([]models.Employee, 0, len(employees))
	for i := range employees {
		response = append(response, employees[i].toAPI())
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) createEmployee(c *gin.Context) {
	var req models.EmployeeCreate
	if !bindJSON(c, &req) {
		return
	}

	employee := Employee{
		UserID:           mustSession(c).UserID,
		FullName:         req.FullName,
		TelegramUsername: req.TelegramUsername,
		IsActive:         req.IsActive,
		IsExternal:       req.IsExternal,
		IsBot:            req.IsBot,
	}
	if req.TelegramUserID != nil {
		id := int64(*req.TelegramUserID)
		employee.TelegramUserID = &id
	}
	if err := s.db.Create(&employee).Error; err != nil {
		s.internalError(c, err, "Failed to create employee")
		return
	}

	s.logger.Info().Int("employee_id", employee.ID).Msg("Employee created")
	c.JSON(http.StatusOK, employee.toAPI())
}

func (s *Server) ownEmployee(c *gin.Context, id int) (*Employee, error) {
	var employee Employee
	err := s.db.Where("id = ? AND user_id = ?", id, mustSession(c).UserID).First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// updateEmployee answers a missing employee with 200 and an error envelope,
// the way the platform backend does.
func (s *Server) updateEmployee(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.EmployeeUpdate
	if !bindJSON(c, &req) {
		return
	}

	employee, err := s.ownEmployee(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": "Employee not found"})
			return
		}
		s.internalError(c, err, "Failed to load employee")
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.TelegramUsername != nil {
		updates["telegram_username"] = *req.TelegramUsername
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsExternal != nil {
		updates["is_external"] = *req.IsExternal
	}
	if req.IsBot != nil {
		updates["is_bot"] = *req.IsBot
	}

	if len(updates) > 0 {
		if err := s.db.Model(employee).Updates(updates).Error; err != nil {
			s.internalError(c, err, "Failed to update employee")
			return
		}
		if employee, err = s.ownEmployee(c, id); err != nil {
			s.internalError(c, err, "Failed to reload employee")
			return
		}
	}

	c.JSON(http.StatusOK, employee.toAPI())
}

func (s *Server) deleteEmployee(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	employee, err := s.ownEmployee(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(c, s.logger, http.StatusNotFound, err, "Employee not found")
			return
		}
		s.internalError(c, err, "Failed to load employee")
		return
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("employee_id = ?", employee.ID).Delete(&ChatEmployee{}).Error; err != nil {
			return err
		}
		return tx.Delete(employee).Error
	})
	if err != nil {
		s.internalError(c, err, "Failed to delete employee")
		return
	}

	s.logger.Info().Int("employee_id", employee.ID).Msg("Employee deleted")
	c.JSON(http.StatusOK, gin.H{"detail": "Employee deleted"})
}
