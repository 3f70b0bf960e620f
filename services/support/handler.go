package support

import (
	"net/http"

	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

func (s *Service) registerRoutes(private *gin.RouterGroup) {
	private.POST("/tickets", s.handleOpen)
	private.GET("/tickets", s.handleList)
	private.GET("/tickets/:id", s.handleGet)
	private.GET("/tickets/:id/replies", s.handleListReplies)
	private.POST("/tickets/:id/replies", s.handleReply)

	private.POST("/admin/tickets/:id/status", s.handleTransition)
}

func isAdmin(c *gin.Context) bool {
	return middleware.Role(c) == "ADMIN"
}

// handleOpen accepts multipart form data so an attachment can ride along
// with the ticket fields.
func (s *Service) handleOpen(c *gin.Context) {
	in := OpenInput{
		Subject:  c.PostForm("subject"),
		Body:     c.PostForm("body"),
		Priority: TicketPriority(c.PostForm("priority")),
	}
	if meta := c.PostForm("metadata"); meta != "" {
		in.Metadata = datatypes.JSON(meta)
	}
	if in.Subject == "" || in.Body == "" {
		c.Error(errutil.ValidationFailed("subject and body are required", nil))
		return
	}

	var att *Attachment
	if fh, err := c.FormFile("attachment"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.Error(errutil.BadRequest("failed to read attachment", err))
			return
		}
		defer f.Close()
		att = &Attachment{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      f,
		}
	}

	t, err := s.Open(c.Request.Context(), middleware.UserID(c), in, att)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Service) handleList(c *gin.Context) {
	out, err := s.List(c.Request.Context(), middleware.UserID(c), isAdmin(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": out})
}

func (s *Service) handleGet(c *gin.Context) {
	t, err := s.Get(c.Request.Context(), middleware.UserID(c), isAdmin(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Service) handleListReplies(c *gin.Context) {
	out, err := s.ListReplies(c.Request.Context(), middleware.UserID(c), isAdmin(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replies": out})
}

func (s *Service) handleReply(c *gin.Context) {
	var in struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	reply, err := s.Reply(c.Request.Context(), middleware.UserID(c), isAdmin(c), c.Param("id"), in.Body)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

func (s *Service) handleTransition(c *gin.Context) {
	var in struct {
		Status TicketStatus `json:"status" binding:"required,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", err))
		return
	}

	t, err := s.Transition(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}
