package payout

import (
	"net/http"

	"unplan-backend/pkg/db/pagination"
	"unplan-backend/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func (s *Service) registerRoutes(private *gin.RouterGroup) {
	admin := private.Group("/admin")
	admin.POST("/payouts", s.handleCreate)
	admin.GET("/payouts", s.handleList)
	admin.GET("/payouts/:id", s.handleGet)
	admin.PATCH("/payouts/:id", s.handleUpdate)
	admin.POST("/payouts/:id/mark-paid", s.handleMarkPaid)
	admin.POST("/payouts/auto-create", s.handleAutoCreate)
}

func (s *Service) handleCreate(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	p, err := s.Create(c.Request.Context(), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Service) handleList(c *gin.Context) {
	var pag pagination.Pagination
	if err := c.ShouldBindQuery(&pag); err != nil {
		c.Error(errutil.BadRequest("invalid pagination parameters", err))
		return
	}

	out, info, err := s.List(c.Request.Context(), pag)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": out, "page_info": info})
}

func (s *Service) handleGet(c *gin.Context) {
	p, err := s.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Service) handleUpdate(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	p, err := s.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Service) handleMarkPaid(c *gin.Context) {
	var in struct {
		Installment Installment `json:"installment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	p, err := s.MarkPaid(c.Request.Context(), c.Param("id"), in.Installment)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Service) handleAutoCreate(c *gin.Context) {
	result, err := s.AutoCreateForConfirmedBookings(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
