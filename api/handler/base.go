package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/clearfund/backend/api/transport"
	"github.com/clearfund/backend/domain"
	"github.com/clearfund/backend/internal/middleware"
	"github.com/clearfund/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), nil))
}

// caller returns the authenticated account address injected by the identity
// middleware, or responds 401 and returns "".
func (h baseHandler) caller(ctx *fasthttp.RequestCtx) string {
	addr := string(ctx.Request.Header.Peek(middleware.CallerHeader))
	if addr == "" {
		h.respondJSON(ctx, http.StatusUnauthorized,
			transport.NewError(string(domain.ErrCodeUnauthorized), "missing caller identity", nil))
	}
	return addr
}

// campaignID parses the {id} path segment, or responds 400 and returns 0.
func (h baseHandler) campaignID(ctx *fasthttp.RequestCtx) uint64 {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		h.respondJSON(ctx, http.StatusBadRequest,
			transport.NewError(string(domain.ErrCodeInvalidInput), "malformed campaign id", nil))
		return 0
	}
	return id
}

// amount parses a decimal string from a request body, or responds 400.
func (h baseHandler) amount(ctx *fasthttp.RequestCtx, raw string) (domain.Amount, bool) {
	a, err := domain.ParseAmount(raw)
	if err != nil {
		h.respondJSON(ctx, http.StatusBadRequest,
			transport.NewError(string(domain.ErrCodeInvalidAmount), "malformed amount", nil))
		return domain.Amount{}, false
	}
	return a, true
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusForbidden, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeInactiveCampaign):
		return http.StatusConflict, string(domain.ErrCodeInactiveCampaign)
	case domain.IsDomainError(err, domain.ErrCodeInvalidAmount):
		return http.StatusBadRequest, string(domain.ErrCodeInvalidAmount)
	case domain.IsDomainError(err, domain.ErrCodeInvalidInput):
		return http.StatusBadRequest, string(domain.ErrCodeInvalidInput)
	case domain.IsDomainError(err, domain.ErrCodeInvalidRecipient):
		return http.StatusBadRequest, string(domain.ErrCodeInvalidRecipient)
	case domain.IsDomainError(err, domain.ErrCodeInsufficientBalance):
		return http.StatusUnprocessableEntity, string(domain.ErrCodeInsufficientBalance)
	case domain.IsDomainError(err, domain.ErrCodeTransferFailed):
		return http.StatusBadGateway, string(domain.ErrCodeTransferFailed)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
