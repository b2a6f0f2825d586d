package invoice

import (
	"github.com/billingkit/taxengine/internal/invoice/repository"
	"github.com/billingkit/taxengine/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
