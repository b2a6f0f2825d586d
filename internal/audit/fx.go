package audit

import (
	"github.com/billingkit/taxengine/internal/audit/repository"
	"github.com/billingkit/taxengine/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
