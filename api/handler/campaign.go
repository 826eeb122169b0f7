package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/clearfund/backend/api/transport"
	"github.com/clearfund/backend/domain"
	"github.com/clearfund/backend/ledger"
	"github.com/clearfund/backend/pkg/httpcontext"
)

type CampaignHandler struct {
	baseHandler
	engine *ledger.Engine
}

func NewCampaignHandler(engine *ledger.Engine, adapter *httpcontext.Adapter, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
	}
}

// @Summary Create campaign
// @Tags campaigns
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) Create(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}

	var req transport.CreateCampaignRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest,
			transport.NewError(string(domain.ErrCodeInvalidInput), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := h.engine.CreateCampaign(stdCtx, caller, req.Metadata)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	campaign, err := h.engine.Campaign(id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, campaign)
}

// @Summary Get campaign
// @Tags campaigns
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) Get(ctx *fasthttp.RequestCtx) {
	id := h.campaignID(ctx)
	if id == 0 {
		return
	}

	campaign, err := h.engine.Campaign(id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, campaign)
}

// @Summary List campaigns
// @Tags campaigns
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) List(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.engine.Campaigns())
}

// @Summary Ledger stats
// @Tags campaigns
// @Router /api/v1/stats [get]
func (h *CampaignHandler) Count(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, map[string]uint64{"total_campaigns": h.engine.TotalCampaigns()})
}

// @Summary Get campaign balance
// @Tags campaigns
// @Router /api/v1/campaigns/{id}/balance [get]
func (h *CampaignHandler) Balance(ctx *fasthttp.RequestCtx) {
	id := h.campaignID(ctx)
	if id == 0 {
		return
	}

	balance, err := h.engine.Balance(id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]domain.Amount{"balance": balance})
}

// @Summary Toggle campaign active flag
// @Tags campaigns
// @Router /api/v1/campaigns/{id}/toggle [post]
func (h *CampaignHandler) Toggle(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}
	id := h.campaignID(ctx)
	if id == 0 {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	active, err := h.engine.ToggleCampaign(stdCtx, caller, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]bool{"active": active})
}
