package middleware

import (
	"errors"
	"net/http"

	"unplan-backend/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error converts errors attached to the gin context into the JSON error shape.
// Services return errutil errors; anything else becomes an opaque internal
// error so no raw failure crosses the boundary.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil {
			return
		}

		var be errutil.BaseError
		if errors.As(err.Err, &be) {
			c.JSON(be.Code.HTTPStatus(), be.JSON())
			return
		}

		internal := errutil.Internal("internal server error", err.Err).(errutil.BaseError)
		c.JSON(http.StatusInternalServerError, internal.JSON())
	}
}
