package transfer

import (
	"context"

	"go.uber.org/zap"

	"github.com/clearfund/backend/domain"
	"github.com/clearfund/backend/ledger"
)

// NoopChannel confirms every transfer without moving value. Development and
// demo environments only.
type NoopChannel struct {
	logger *zap.Logger
}

func NewNoop(logger *zap.Logger) *NoopChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopChannel{logger: logger}
}

func (c *NoopChannel) Transfer(ctx context.Context, recipient string, amount domain.Amount) error {
	c.logger.Info("noop transfer confirmed",
		zap.String("recipient", recipient),
		zap.String("amount", amount.String()))
	return nil
}

var _ ledger.TransferChannel = (*NoopChannel)(nil)
