package migration

import (
	auditdomain "github.com/billingkit/taxengine/internal/audit/domain"
	"github.com/billingkit/taxengine/internal/config"
	invoicedomain "github.com/billingkit/taxengine/internal/invoice/domain"
	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// Versioned migrations target postgres; other dialects get the
		// schema straight from the models.
		return conn.AutoMigrate(
			&taxratedomain.TaxRate{},
			&auditdomain.AuditLog{},
			&invoicedomain.Invoice{},
			&invoicedomain.LineItem{},
			&invoicedomain.Payment{},
		)
	}),
)
