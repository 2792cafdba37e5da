package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/notify"
	"go.uber.org/zap"
)

// OrderStreamHandler exposes the notification hub over Server-Sent Events.
// Each connected admin client gets one hub subscription; delivery guarantees
// (at-most-once, no replay, drop-not-block) come from the hub itself.
type OrderStreamHandler struct {
	BaseHandler
	hub        *notify.Hub
	logger     *zap.Logger
	heartbeat  time.Duration
	maxClients int
}

// OrderStreamOption is a functional option for configuring the handler
type OrderStreamOption func(*OrderStreamHandler)

// WithStreamLogger sets the logger for the handler
func WithStreamLogger(logger *zap.Logger) OrderStreamOption {
	return func(h *OrderStreamHandler) {
		h.logger = logger
	}
}

// WithStreamHeartbeat sets the keep-alive interval
func WithStreamHeartbeat(interval time.Duration) OrderStreamOption {
	return func(h *OrderStreamHandler) {
		h.heartbeat = interval
	}
}

// WithStreamMaxClients caps the number of concurrent SSE connections
func WithStreamMaxClients(max int) OrderStreamOption {
	return func(h *OrderStreamHandler) {
		h.maxClients = max
	}
}

// NewOrderStreamHandler creates a new OrderStreamHandler
func NewOrderStreamHandler(hub *notify.Hub, opts ...OrderStreamOption) *OrderStreamHandler {
	h := &OrderStreamHandler{
		hub:        hub,
		logger:     zap.NewNop(),
		heartbeat:  30 * time.Second,
		maxClients: 100,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// RegisterRoutes implements router.RouteRegistrar
func (h *OrderStreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/orders/stream", middleware.RequireSession(), h.Stream)
}

// Stream holds the connection open and relays hub notifications as SSE events
func (h *OrderStreamHandler) Stream(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	sub, ok := h.hub.TrySubscribe(sessionID, h.maxClients)
	if !ok {
		c.JSON(http.StatusServiceUnavailable,
			dto.NewErrorResponse("MAX_CONNECTIONS_REACHED", "Maximum number of stream connections reached"))
		return
	}
	defer h.hub.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	h.logger.Info("order stream client connected",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("session_id", sessionID))

	h.sendEvent(c.Writer, "connected",
		fmt.Sprintf(`{"subscription_id":%q,"timestamp":%d}`, sub.ID, time.Now().Unix()))
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	reqCtx := c.Request.Context()

	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("order stream client disconnected",
				zap.String("subscription_id", sub.ID.String()))
			return
		case <-ticker.C:
			h.sendEvent(c.Writer, "heartbeat", fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()))
			c.Writer.Flush()
		case n, ok := <-sub.C():
			if !ok {
				// Hub shut down
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				h.logger.Error("failed to marshal notification", zap.Error(err))
				continue
			}
			h.sendEvent(c.Writer, string(n.Kind), string(data))
			c.Writer.Flush()
		}
	}
}

func (h *OrderStreamHandler) sendEvent(w io.Writer, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", data)
}
