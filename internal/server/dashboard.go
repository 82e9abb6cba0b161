package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetDashboardSummary(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	summary, err := s.dashboardSvc.Summary(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
