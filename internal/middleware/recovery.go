package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/brokerage/internal/logger"
)

// Recovery turns a panic in a handler into a translated 500 response and logs
// the stack. http.ErrAbortHandler is re-raised so net/http can drop the
// connection as intended.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			requestLogger := GetLogger(c)
			if requestLogger == nil {
				requestLogger = log
			}

			fields := map[string]interface{}{
				"request_id": GetRequestID(c),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"route":      c.FullPath(),
				"stack":      string(debug.Stack()),
			}
			if user, ok := GetUser(c); ok {
				fields["user_id"] = user.ID.String()
			}
			requestLogger.Error("Panic recovered", fmt.Errorf("panic: %v", rec), fields)

			abortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal")
		}()

		c.Next()
	}
}
