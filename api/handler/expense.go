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

type ExpenseHandler struct {
	baseHandler
	engine *ledger.Engine
}

func NewExpenseHandler(engine *ledger.Engine, adapter *httpcontext.Adapter, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
	}
}

// @Summary Record an expense
// @Tags expenses
// @Router /api/v1/campaigns/{id}/expenses [post]
func (h *ExpenseHandler) Record(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}
	id := h.campaignID(ctx)
	if id == 0 {
		return
	}

	var req transport.ExpenseRequest
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

	if err := h.engine.RecordExpense(stdCtx, caller, id, req.Recipient, amount, req.Description); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, nil)
}

// @Summary List campaign expenses
// @Tags expenses
// @Router /api/v1/campaigns/{id}/expenses [get]
func (h *ExpenseHandler) List(ctx *fasthttp.RequestCtx) {
	id := h.campaignID(ctx)
	if id == 0 {
		return
	}

	expenses, err := h.engine.Expenses(id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, expenses)
}
