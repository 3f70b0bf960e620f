package wallet

import (
	"net/http"
	"time"

	"unplan-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) registerRoutes(private *gin.RouterGroup) {
	private.GET("/host/wallet", s.handleSummary)
	private.GET("/host/wallet/upcoming", s.handleUpcoming)
}

func (s *Service) handleSummary(c *gin.Context) {
	summary, err := s.Summarize(c.Request.Context(), middleware.UserID(c), time.Now())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Service) handleUpcoming(c *gin.Context) {
	out, err := s.ListUpcoming(c.Request.Context(), middleware.UserID(c), time.Now())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"installments": out})
}
