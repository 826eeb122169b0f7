package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/clearfund/backend/ledger"
	"github.com/clearfund/backend/pkg/httpcontext"
)

type EventsHandler struct {
	baseHandler
	engine *ledger.Engine
}

func NewEventsHandler(engine *ledger.Engine, adapter *httpcontext.Adapter, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
	}
}

// @Summary Campaign event history
// @Tags events
// @Router /api/v1/campaigns/{id}/events [get]
//
// The `after` query parameter is a sequence cursor: consumers poll with the
// last sequence they have seen to pick up new transitions.
func (h *EventsHandler) ByCampaign(ctx *fasthttp.RequestCtx) {
	id := h.campaignID(ctx)
	if id == 0 {
		return
	}
	if _, err := h.engine.Campaign(id); err != nil {
		h.respondError(ctx, err)
		return
	}

	after := parseUint(string(ctx.QueryArgs().Peek("after")), 0)
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 100)

	events := h.engine.Events(id, after, limit)
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"events":        events,
		"last_sequence": h.engine.LastSequence(),
	})
}

func parseUint(value string, fallback uint64) uint64 {
	if v, err := strconv.ParseUint(value, 10, 64); err == nil {
		return v
	}
	return fallback
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
