package taxrate

import (
	"github.com/billingkit/taxengine/internal/taxrate/repository"
	"github.com/billingkit/taxengine/internal/taxrate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("taxrate.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
