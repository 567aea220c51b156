package devserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/koinsera/botadmin/internal/models"
	"github.com/koinsera/botadmin/internal/sysinfo"
)

const serviceName = "botadmin-devserver"

func (s *Server) systemInfo(c *gin.Context) {
	host, err := sysinfo.Collect()
	if err != nil {
		// runtime figures are still valid without /proc
		s.logger.Debug().Err(err).Msg("Host memory unavailable")
	}

	var counts models.RecordCounts
	for _, q := range []struct {
		model interface{}
		dest  *int64
	}{
		{&User{}, &counts.Users},
		{&Bot{}, &counts.Bots},
		{&Chat{}, &counts.Chats},
		{&Employee{}, &counts.Employees},
		{&ChatEmployee{}, &counts.Participants},
	} {
		if err := s.db.Model(q.model).Count(q.dest).Error; err != nil {
			s.internalError(c, err, "Failed to count records")
			return
		}
	}

	c.JSON(http.StatusOK, models.SystemInfo{
		Service:       serviceName,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Host:          host,
		Records:       counts,
	})
}
