package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	costsdomain "github.com/smallbiznis/mesa/internal/costs/domain"
	memberdomain "github.com/smallbiznis/mesa/internal/member/domain"
	paymentdomain "github.com/smallbiznis/mesa/internal/payment/domain"
	sessiondomain "github.com/smallbiznis/mesa/internal/session/domain"
	shiftdomain "github.com/smallbiznis/mesa/internal/shift/domain"
	tabledomain "github.com/smallbiznis/mesa/internal/table/domain"
	tenantdomain "github.com/smallbiznis/mesa/internal/tenant/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the embedded postgres schema so a fresh install
// is usable out of the box.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema through gorm for the non-postgres
// dialects, where the versioned SQL does not apply.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&tenantdomain.Tenant{},
		&tabledomain.Table{},
		&tabledomain.MaintenanceAlert{},
		&memberdomain.Member{},
		&sessiondomain.UsageLog{},
		&sessiondomain.OrderItem{},
		&paymentdomain.PaymentRecord{},
		&costsdomain.CostEntry{},
		&costsdomain.AncillaryRevenue{},
		&shiftdomain.DailyBalance{},
	)
}
