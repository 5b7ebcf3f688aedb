package orderControllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/tracking"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GET /api/orders/:orderNumber/tracking
func GetTracking(svc *tracking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.Snapshot(c.Request.Context(), c.Param("orderNumber"), middleware.UserID(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, u)
	}
}

// GET /api/orders/:orderNumber/tracking/stream
//
// Server-sent events. Lookup errors are returned as a normal JSON error
// before the stream starts.
func StreamTracking(svc *tracking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		run, err := svc.Open(ctx, c.Param("orderNumber"), middleware.UserID(c))
		if err != nil {
			response.Fail(c, err)
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		err = run(ctx, func(u tracking.Update) error {
			c.SSEvent("update", u)
			c.Writer.Flush()
			return ctx.Err()
		})
		if streamFailed(err) {
			logging.From(c).Error("tracking stream failed", "err", err)
			c.SSEvent("error", response.ErrorOf(err))
			c.Writer.Flush()
			return
		}
		c.SSEvent("end", gin.H{"reason": endReason(err)})
		c.Writer.Flush()
	}
}

// GET /api/orders/:orderNumber/tracking/ws
func TrackingWebSocket(svc *tracking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := svc.Open(c.Request.Context(), c.Param("orderNumber"), middleware.UserID(c))
		if err != nil {
			response.Fail(c, err)
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Client messages are ignored; a read error means the peer went away.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		err = run(ctx, func(u tracking.Update) error {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteJSON(u)
		})

		code, reason := websocket.CloseNormalClosure, endReason(err)
		if streamFailed(err) {
			logging.From(c).Warn("tracking socket closed", "err", err)
			code, reason = websocket.CloseInternalServerErr, "stream error"
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	}
}

func streamFailed(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, tracking.ErrTickLimit)
}

func endReason(err error) string {
	switch {
	case err == nil:
		return "final"
	case errors.Is(err, tracking.ErrTickLimit):
		return "limit"
	default:
		return "closed"
	}
}
