// Package seed bootstraps the default tenant so a standalone install is
// usable without a provisioning call.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/smallbiznis/mesa/internal/tenant/domain"
	"gorm.io/gorm"
)

const defaultTenantName = "Main"

// EnsureDefaultTenant seeds the default tenant for startup bootstrap.
func EnsureDefaultTenant(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	return ensureTenant(db, node.Generate())
}

// EnsureDefaultTenantWithID seeds the default tenant under a fixed id so
// deployments can pin the standalone tenant.
func EnsureDefaultTenantWithID(db *gorm.DB, id int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	return ensureTenant(db, snowflake.ID(id))
}

func ensureTenant(db *gorm.DB, id snowflake.ID) error {
	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&tenantdomain.Tenant{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		tenant := tenantdomain.Tenant{
			ID:       id,
			Name:     defaultTenantName,
			Currency: "CLP",
		}
		return tx.Create(&tenant).Error
	})
}
