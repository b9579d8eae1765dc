package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/internal/shift/domain"
	"github.com/smallbiznis/mesa/pkg/db/pagination"
	"github.com/smallbiznis/mesa/pkg/repository"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
)

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.DailyBalance, error) {
	balance, err := s.balances.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, domain.ErrNotFound
	}
	return balance, nil
}

// List pages sealed balances newest first.
func (s *Service) List(ctx context.Context, pageToken string, pageSize int) ([]*domain.DailyBalance, string, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		return nil, "", repository.ErrNoTenant
	}

	size := pagination.Pagination{PageSize: pageSize}.Clamp()
	query := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id DESC").
		Limit(size + 1)

	if pageToken != "" {
		cursor, err := pagination.DecodeCursor(pageToken)
		if err != nil {
			return nil, "", domain.ErrNotFound
		}
		lastID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, "", domain.ErrNotFound
		}
		query = query.Where("id < ?", lastID)
	}

	var balances []*domain.DailyBalance
	if err := query.Find(&balances).Error; err != nil {
		return nil, "", err
	}

	nextToken := ""
	if len(balances) > size {
		balances = balances[:size]
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: balances[len(balances)-1].ID.String()})
		if err != nil {
			return nil, "", err
		}
		nextToken = token
	}
	return balances, nextToken, nil
}

// Verify recomputes the integrity hash from the stored figures. A
// mismatch means the row was altered outside this engine.
func (s *Service) Verify(ctx context.Context, id snowflake.ID) (*domain.VerifyResult, error) {
	balance, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	computed := domain.ComputeIntegrityHash(balance)
	return &domain.VerifyResult{
		BalanceID:    balance.ID,
		Valid:        computed == balance.IntegrityHash,
		StoredHash:   balance.IntegrityHash,
		ComputedHash: computed,
	}, nil
}
