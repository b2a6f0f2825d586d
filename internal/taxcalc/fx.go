package taxcalc

import (
	"github.com/billingkit/taxengine/internal/clock"
	"github.com/billingkit/taxengine/internal/config"
	"github.com/billingkit/taxengine/internal/jurisdiction"
	"github.com/billingkit/taxengine/internal/reversecharge"
	"github.com/billingkit/taxengine/internal/taxcalc/adapters"
	"github.com/billingkit/taxengine/internal/taxcalc/adapters/avalara"
	"github.com/billingkit/taxengine/internal/taxcalc/adapters/manual"
	"github.com/billingkit/taxengine/internal/taxcalc/adapters/taxjar"
	"github.com/billingkit/taxengine/internal/taxcalc/adapters/vertex"
	"github.com/billingkit/taxengine/internal/taxcalc/domain"
	"github.com/billingkit/taxengine/internal/taxcalc/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("taxcalc.service",
	fx.Provide(jurisdiction.NewResolver),
	fx.Provide(newEvaluator),
	fx.Provide(newRegistry),
	fx.Provide(service.NewMetrics),
	fx.Provide(service.NewOrchestrator),
)

func newEvaluator(cfg config.Config) *reversecharge.Evaluator {
	return reversecharge.NewEvaluator(cfg.Tax.BusinessCountry)
}

// newRegistry registers the built-in provider plus every external
// provider enabled in configuration.
func newRegistry(cfg config.Config, log *zap.Logger, resolver *jurisdiction.Resolver, charge *reversecharge.Evaluator, clk clock.Clock) *adapters.Registry {
	providers := []domain.TaxProvider{
		manual.New(log, resolver, charge, clk),
	}
	if cfg.Avalara.Enabled {
		providers = append(providers, avalara.New(cfg.Avalara, log, clk))
	}
	if cfg.TaxJar.Enabled {
		providers = append(providers, taxjar.New(cfg.TaxJar, log, clk))
	}
	if cfg.Vertex.Enabled {
		providers = append(providers, vertex.New(cfg.Vertex, log, clk))
	}
	return adapters.NewRegistry(providers...)
}
