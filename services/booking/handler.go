package booking

import (
	"net/http"

	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) registerRoutes(private *gin.RouterGroup) {
	private.POST("/bookings", s.handleCreate)
	private.GET("/bookings", s.handleListByTraveler)
	private.POST("/bookings/:id/cancel", s.handleCancel)

	private.GET("/host/bookings", s.handleListByHost)
	private.POST("/host/bookings/:id/confirm", s.handleConfirm)
}

func (s *Service) handleCreate(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	b, err := s.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (s *Service) handleListByTraveler(c *gin.Context) {
	out, err := s.ListByTraveler(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (s *Service) handleCancel(c *gin.Context) {
	b, err := s.Cancel(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Service) handleListByHost(c *gin.Context) {
	out, err := s.ListByHost(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (s *Service) handleConfirm(c *gin.Context) {
	b, err := s.Confirm(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, b)
}
