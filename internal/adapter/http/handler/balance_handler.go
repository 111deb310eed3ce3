package handler

import (
	"io"
	"time"

	"balance-monitor/internal/adapter/http/dto"
	"balance-monitor/internal/core/domain"
	"balance-monitor/internal/core/ports"
	"balance-monitor/pkg/apperror"
	"balance-monitor/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	defaultStreamHeartbeat = 15 * time.Second
	streamBuffer           = 8
)

// BalanceHandler serves the balance snapshot, refresh and lifecycle
// triggers, and the live SSE stream.
type BalanceHandler struct {
	svc        ports.BalanceService
	lifecycle  ports.LifecycleNotifier
	formatDate domain.DateFormatter
	heartbeat  time.Duration
	log        zerolog.Logger
}

// NewBalanceHandler creates a BalanceHandler. A nil formatDate falls back to
// relative dates in local time; a non-positive heartbeat uses 15s.
func NewBalanceHandler(
	svc ports.BalanceService,
	lifecycle ports.LifecycleNotifier,
	formatDate domain.DateFormatter,
	heartbeat time.Duration,
	log zerolog.Logger,
) *BalanceHandler {
	if formatDate == nil {
		formatDate = domain.RelativeDateFormatter(time.Now)
	}
	if heartbeat <= 0 {
		heartbeat = defaultStreamHeartbeat
	}
	return &BalanceHandler{
		svc:        svc,
		lifecycle:  lifecycle,
		formatDate: formatDate,
		heartbeat:  heartbeat,
		log:        log,
	}
}

// Get handles GET /api/v1/balance.
func (h *BalanceHandler) Get(c *gin.Context) {
	response.OK(c, h.render(h.svc.CurrentState()))
}

// Refresh handles POST /api/v1/balance/refresh. The fetch runs in the
// background; the response carries the refreshing snapshot.
func (h *BalanceHandler) Refresh(c *gin.Context) {
	h.svc.Dispatch(domain.RefreshRequested())
	response.Accepted(c, h.render(h.svc.CurrentState()))
}

// Lifecycle handles POST /api/v1/lifecycle/:signal.
func (h *BalanceHandler) Lifecycle(c *gin.Context) {
	var req dto.LifecycleRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, apperror.ErrInvalidLifecycleSignal(c.Param("signal")))
		return
	}

	sig, _ := domain.ParseLifecycleSignal(req.Signal)
	h.lifecycle.Notify(sig)
	response.OK(c, h.render(h.svc.CurrentState()))
}

// Stream handles GET /api/v1/balance/stream: one "state" event per snapshot,
// starting with the current one, plus periodic "heartbeat" events.
func (h *BalanceHandler) Stream(c *gin.Context) {
	updates := make(chan domain.BalanceState, streamBuffer)
	unsubscribe := h.svc.Subscribe(func(state domain.BalanceState) {
		offerLatest(updates, state)
	})
	defer unsubscribe()

	requestID := response.RequestID(c)
	h.log.Debug().Str("request_id", requestID).Msg("balance stream opened")
	defer h.log.Debug().Str("request_id", requestID).Msg("balance stream closed")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case state := <-updates:
			c.SSEvent("state", h.render(state))
			return true
		case t := <-ticker.C:
			c.SSEvent("heartbeat", t.UTC().Format(time.RFC3339))
			return true
		}
	})
}

func (h *BalanceHandler) render(state domain.BalanceState) dto.BalanceStateResponse {
	return dto.NewBalanceStateResponse(state, h.formatDate)
}

// offerLatest enqueues state without blocking, discarding the oldest queued
// snapshot when the client is slower than the engine. Only one goroutine
// sends on ch.
func offerLatest(ch chan domain.BalanceState, state domain.BalanceState) {
	for {
		select {
		case ch <- state:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
