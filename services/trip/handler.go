package trip

import (
	"net/http"

	"unplan-backend/pkg/db/pagination"
	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) registerRoutes(public, private *gin.RouterGroup) {
	public.GET("/trips", s.handleListActive)
	public.GET("/trips/:slug", s.handleGetBySlug)

	private.POST("/host/trips", s.handleCreate)
	private.PATCH("/host/trips/:id", s.handleUpdate)
	private.GET("/host/trips", s.handleListByHost)
}

func (s *Service) handleListActive(c *gin.Context) {
	var pag pagination.Pagination
	if err := c.ShouldBindQuery(&pag); err != nil {
		c.Error(errutil.BadRequest("invalid pagination parameters", err))
		return
	}

	plans, info, err := s.ListActive(c.Request.Context(), pag)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": plans, "page_info": info})
}

func (s *Service) handleGetBySlug(c *gin.Context) {
	plan, err := s.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Service) handleCreate(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	plan, err := s.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (s *Service) handleUpdate(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	plan, err := s.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Service) handleListByHost(c *gin.Context) {
	plans, err := s.ListByHost(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": plans})
}
