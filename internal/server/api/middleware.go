package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/sortify/internal/common"
	"github.com/dmitrijs2005/sortify/internal/logging"
	"github.com/dmitrijs2005/sortify/internal/server/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

// RequestLogger logs one line per request and tags the response with a
// request id.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
	log = log.With("module", "http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			res.Header().Set(echo.HeaderXRequestID, requestID)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := []any{
				"request_id", requestID,
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
				"bytes_out", res.Size,
			}
			if uid, ok := c.Get(userIDKey).(int64); ok {
				args = append(args, "user_id", uid)
			}
			log.Info(req.Context(), "request", args...)

			return nil
		}
	}
}

// RequireUser authenticates the bearer token and stores the caller's id in
// the echo context.
func RequireUser(secret []byte, log logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, common.BearerPrefix)
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": common.ErrorUnauthorized.Error()})
			}

			userID, err := auth.GetUserIDFromToken(token, secret)
			if err != nil {
				log.Debug(c.Request().Context(), "token rejected", "error", err)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": common.ErrorUnauthorized.Error()})
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

func userIDFrom(c echo.Context) int64 {
	id, _ := c.Get(userIDKey).(int64)
	return id
}
