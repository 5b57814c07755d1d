package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/logger"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

// ErrorHandler renders errors attached to the context as the uniform
// {code, message, details} body. Unexpected errors are masked; their
// cause goes to the log, never to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		appErr, ok := apperror.As(err)
		if !ok {
			appErr = apperror.Internal("internal server error", err)
		}

		entry := logger.Log.WithFields(logrus.Fields{
			"code":   appErr.Code,
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			entry.WithField("error", err).Error("request failed")
		} else {
			entry.Debug("request rejected")
		}

		body := gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		}
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		c.JSON(appErr.HTTPStatus, body)
	}
}

// Abort records err on the context and stops the handler chain. The
// response body is written by ErrorHandler.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
