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

type DonationHandler struct {
	baseHandler
	engine *ledger.Engine
}

func NewDonationHandler(engine *ledger.Engine, adapter *httpcontext.Adapter, logger *zap.Logger) *DonationHandler {
	return &DonationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
	}
}

// @Summary Donate to a campaign
// @Tags donations
// @Router /api/v1/campaigns/{id}/donations [post]
func (h *DonationHandler) Donate(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}
	id := h.campaignID(ctx)
	if id == 0 {
		return
	}

	var req transport.DonationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest,
			transport.NewError(string(domain.ErrCodeInvalidInput), "invalid payload", nil))
		return
	}
	amount, ok := h.amount(ctx, req.Amount)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.engine.Donate(stdCtx, caller, id, amount); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, nil)
}

// @Summary Get a donor's cumulative contribution
// @Tags donations
// @Router /api/v1/campaigns/{id}/donations/{donor} [get]
func (h *DonationHandler) DonorAmount(ctx *fasthttp.RequestCtx) {
	id := h.campaignID(ctx)
	if id == 0 {
		return
	}
	donor, _ := ctx.UserValue("donor").(string)
	if !domain.ValidAddress(donor) {
		h.respondJSON(ctx, http.StatusBadRequest,
			transport.NewError(string(domain.ErrCodeInvalidInput), "malformed donor address", nil))
		return
	}

	amount, err := h.engine.DonationAmount(id, donor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, domain.Contribution{
		CampaignID: id,
		Donor:      domain.NormalizeAddress(donor),
		Amount:     amount,
	})
}
