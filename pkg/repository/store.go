package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type store[T any] struct {
	db  *gorm.DB
	log *zap.Logger
}

// ProvideStore builds a tenant-scoped store for T.
func ProvideStore[T any](db *gorm.DB, log *zap.Logger) TenantScoped[T] {
	return &store[T]{db: db, log: log.Named("repository")}
}

func (r *store[T]) WithTx(tx *gorm.DB) TenantScoped[T] {
	return &store[T]{db: tx, log: r.log}
}

func (r *store[T]) Find(ctx context.Context, query *T) ([]*T, error) {
	stmt, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}
	var result []*T
	err = stmt.Where(query).Find(&result).Error
	return result, err
}

func (r *store[T]) FindOne(ctx context.Context, query *T) (*T, error) {
	stmt, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}
	var result T
	if err := stmt.Where(query).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) FindByID(ctx context.Context, id snowflake.ID) (*T, error) {
	stmt, err := r.scoped(ctx)
	if err != nil {
		return nil, err
	}
	var result T
	if err := stmt.Where("id = ?", id).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		return ErrNoTenant
	}
	if owned, isOwned := any(resource).(TenantOwned); isOwned {
		// Never trust a caller-supplied tenant id on create.
		if got := owned.GetTenantID(); got != 0 && got != tenantID {
			r.warnCrossTenant(ctx, "create", got)
		}
		owned.SetTenantID(tenantID)
	}
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *store[T]) Updates(ctx context.Context, id snowflake.ID, values any) error {
	stmt, err := r.scoped(ctx)
	if err != nil {
		return err
	}
	result := stmt.Model(new(T)).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *store[T]) Delete(ctx context.Context, id snowflake.ID) error {
	stmt, err := r.scoped(ctx)
	if err != nil {
		return err
	}
	var dummy T
	result := stmt.Where("id = ?", id).Delete(&dummy)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *store[T]) Count(ctx context.Context, query *T) (int64, error) {
	stmt, err := r.scoped(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = stmt.Model(new(T)).Where(query).Count(&count).Error
	return count, err
}

func (r *store[T]) scoped(ctx context.Context) (*gorm.DB, error) {
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		return nil, ErrNoTenant
	}
	return r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), nil
}

func (r *store[T]) warnCrossTenant(ctx context.Context, op string, supplied snowflake.ID) {
	scope, _ := tenantctx.FromContext(ctx)
	r.log.Warn("cross-tenant write rewritten",
		zap.Bool("security", true),
		zap.String("op", op),
		zap.Int64("scope_tenant", int64(scope.TenantID)),
		zap.Int64("supplied_tenant", int64(supplied)),
		zap.String("actor", scope.Actor),
	)
}
