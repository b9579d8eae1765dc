package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stubProvider fabricates checkout handles for standalone deployments.
type stubProvider struct {
	log *zap.Logger
}

func NewStub(log *zap.Logger) Provider {
	return &stubProvider{log: log.Named("payment.stub")}
}

func (p *stubProvider) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	_ = ctx
	txID := uuid.NewString()
	p.log.Info("payment intent created",
		zap.Int64("tenant_id", int64(req.TenantID)),
		zap.Float64("amount", req.Amount),
		zap.String("transaction_id", txID),
	)
	return Intent{
		Success:       true,
		TransactionID: txID,
		PaymentURL:    fmt.Sprintf("https://pay.local/checkout/%s", txID),
	}, nil
}
