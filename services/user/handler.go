package user

import (
	"net/http"

	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) registerRoutes(public, private *gin.RouterGroup) {
	public.POST("/auth/register", s.handleRegister)
	public.POST("/auth/login", s.handleLogin)
	private.GET("/me", s.handleMe)
}

func (s *Service) handleRegister(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	u, err := s.Register(c.Request.Context(), in)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, u)
}

func (s *Service) handleLogin(c *gin.Context) {
	var in LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	result, err := s.Login(c.Request.Context(), in)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Service) handleMe(c *gin.Context) {
	u, err := s.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, u)
}
