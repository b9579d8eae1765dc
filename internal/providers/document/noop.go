package document

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// noopProvider issues synthetic references. It stands in for the real
// integration in standalone deployments and in tests.
type noopProvider struct {
	log *zap.Logger
}

func NewNoop(log *zap.Logger) Provider {
	return &noopProvider{log: log.Named("document.noop")}
}

func (p *noopProvider) Emit(ctx context.Context, req Request) Result {
	_ = ctx
	ref := uuid.NewString()
	p.log.Info("document issued",
		zap.Int64("tenant_id", int64(req.TenantID)),
		zap.String("doc_type", req.DocType),
		zap.String("ref", ref),
		zap.String("gross", req.Gross.String()),
	)
	return Result{Ref: ref, Status: StatusIssued}
}
