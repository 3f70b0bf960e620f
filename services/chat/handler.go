package chat

import (
	"net/http"

	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) registerRoutes(private *gin.RouterGroup) {
	private.GET("/conversations", s.handleList)
	private.POST("/conversations", s.handleOpen)
	private.GET("/conversations/unread-count", s.handleUnreadCount)
	private.GET("/conversations/:id/messages", s.handleListMessages)
	private.POST("/conversations/:id/messages", s.handleSendMessage)
}

func (s *Service) handleOpen(c *gin.Context) {
	var in struct {
		TravelPlanID string `json:"travel_plan_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	conv, err := s.GetOrCreate(c.Request.Context(), middleware.UserID(c), in.TravelPlanID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Service) handleList(c *gin.Context) {
	out, err := s.ListConversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": out})
}

func (s *Service) handleUnreadCount(c *gin.Context) {
	count, err := s.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (s *Service) handleListMessages(c *gin.Context) {
	msgs, err := s.ListMessages(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Service) handleSendMessage(c *gin.Context) {
	var in struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	msg, err := s.SendMessage(c.Request.Context(), middleware.UserID(c), c.Param("id"), in.Body)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
