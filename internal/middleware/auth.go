package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/clearfund/backend/domain"
)

// CallerHeader carries the authenticated account address extracted from the
// bearer token. The ledger trusts this identity as given and only performs
// authorization checks against stored owners.
const CallerHeader = "X-Caller-Address"

// CallerIdentity verifies the bearer token and forwards the address claim to
// handlers. Requests without a valid token carrying a well-formed address are
// rejected before reaching the ledger.
func CallerIdentity(secret string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			// Strip any spoofed identity header before verification.
			ctx.Request.Header.Del(CallerHeader)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid bearer token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			address := addressClaim(token)
			if !domain.ValidAddress(address) {
				logger.Warn("token carries no valid address claim")
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			ctx.Request.Header.Set(CallerHeader, domain.NormalizeAddress(address))

			next(ctx)
		}
	}
}

func addressClaim(token *jwt.Token) string {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	if addr, ok := claims["address"].(string); ok && addr != "" {
		return addr
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
