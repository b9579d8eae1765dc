package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mesa/pkg/tenantctx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type adminStore[T any] struct {
	db  *gorm.DB
	log *zap.Logger
}

// ProvideAdminStore builds an unscoped store for T. Mutations require a
// privileged caller role; rejections are logged as security events.
func ProvideAdminStore[T any](db *gorm.DB, log *zap.Logger) Admin[T] {
	return &adminStore[T]{db: db, log: log.Named("repository.admin")}
}

func (r *adminStore[T]) WithTx(tx *gorm.DB) Admin[T] {
	return &adminStore[T]{db: tx, log: r.log}
}

func (r *adminStore[T]) Find(ctx context.Context, query *T) ([]*T, error) {
	var result []*T
	err := r.db.WithContext(ctx).Where(query).Find(&result).Error
	return result, err
}

func (r *adminStore[T]) FindByID(ctx context.Context, id snowflake.ID) (*T, error) {
	var result T
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *adminStore[T]) Create(ctx context.Context, resource *T) error {
	if err := r.requirePrivileged(ctx, "create"); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *adminStore[T]) Updates(ctx context.Context, id snowflake.ID, values any) error {
	if err := r.requirePrivileged(ctx, "update"); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *adminStore[T]) Delete(ctx context.Context, id snowflake.ID) error {
	if err := r.requirePrivileged(ctx, "delete"); err != nil {
		return err
	}
	var dummy T
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&dummy)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *adminStore[T]) requirePrivileged(ctx context.Context, op string) error {
	scope, ok := tenantctx.FromContext(ctx)
	if !ok || !tenantctx.Privileged(scope.Role) {
		r.log.Warn("privileged mutation rejected",
			zap.Bool("security", true),
			zap.String("op", op),
			zap.String("actor", scope.Actor),
			zap.String("role", scope.Role),
		)
		return ErrPermissionDenied
	}
	return nil
}
