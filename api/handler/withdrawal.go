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

type WithdrawalHandler struct {
	baseHandler
	engine *ledger.Engine
}

func NewWithdrawalHandler(engine *ledger.Engine, adapter *httpcontext.Adapter, logger *zap.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
	}
}

// @Summary Withdraw funds to the campaign owner
// @Tags withdrawals
// @Router /api/v1/campaigns/{id}/withdrawals [post]
func (h *WithdrawalHandler) Withdraw(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}
	id := h.campaignID(ctx)
	if id == 0 {
		return
	}

	var req transport.WithdrawalRequest
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

	if err := h.engine.WithdrawFunds(stdCtx, caller, id, amount); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, nil)
}
