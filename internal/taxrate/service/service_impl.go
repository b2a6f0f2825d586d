package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	auditdomain "github.com/billingkit/taxengine/internal/audit/domain"
	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     taxratedomain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	repo     taxratedomain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) taxratedomain.Service {
	return &Service{
		log:      p.Log.Named("taxrate.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req taxratedomain.CreateRequest) (*taxratedomain.Response, error) {
	now := time.Now().UTC()
	rate := taxratedomain.TaxRate{
		ID:                s.genID.Generate(),
		Name:              strings.TrimSpace(req.Name),
		Country:           strings.ToUpper(strings.TrimSpace(req.Country)),
		State:             trimPointer(req.State),
		City:              trimPointer(req.City),
		PostalCode:        trimPointer(req.PostalCode),
		TaxType:           req.TaxType,
		RatePercent:       req.RatePercent,
		Compound:          req.Compound,
		ProductTypes:      datatypes.NewJSONSlice(req.ProductTypes),
		CustomerTypes:     datatypes.NewJSONSlice(req.CustomerTypes),
		MinimumAmount:     req.MinimumAmount,
		MaximumAmount:     req.MaximumAmount,
		RevenueThreshold:  req.RevenueThreshold,
		VATExempt:         req.VATExempt,
		ReverseCharge:     req.ReverseCharge,
		ExemptEntityTypes: datatypes.NewJSONSlice(req.ExemptEntityTypes),
		EffectiveFrom:     req.EffectiveFrom,
		EffectiveTo:       req.EffectiveTo,
		Active:            true,
		ProviderRefs:      datatypes.JSONMap(orEmpty(req.ProviderRefs)),
		Metadata:          datatypes.JSONMap(orEmpty(req.Metadata)),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if rate.EffectiveFrom.IsZero() {
		rate.EffectiveFrom = now
	}

	if err := rate.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &rate); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "tax_rate.create", &rate)
	resp := toResponse(&rate)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req taxratedomain.ListRequest) ([]taxratedomain.Response, error) {
	rates, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]taxratedomain.Response, 0, len(rates))
	for i := range rates {
		out = append(out, toResponse(&rates[i]))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, req taxratedomain.UpdateRequest) (*taxratedomain.Response, error) {
	rate, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		rate.Name = strings.TrimSpace(*req.Name)
	}
	if req.RatePercent != nil {
		rate.RatePercent = *req.RatePercent
	}
	if req.Compound != nil {
		rate.Compound = *req.Compound
	}
	if req.ProductTypes != nil {
		rate.ProductTypes = datatypes.NewJSONSlice(req.ProductTypes)
	}
	if req.CustomerTypes != nil {
		rate.CustomerTypes = datatypes.NewJSONSlice(req.CustomerTypes)
	}
	if req.MinimumAmount != nil {
		rate.MinimumAmount = req.MinimumAmount
	}
	if req.MaximumAmount != nil {
		rate.MaximumAmount = req.MaximumAmount
	}
	if req.EffectiveTo != nil {
		rate.EffectiveTo = req.EffectiveTo
	}
	rate.UpdatedAt = time.Now().UTC()

	if err := rate.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rate); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "tax_rate.update", rate)
	resp := toResponse(rate)
	return &resp, nil
}

func (s *Service) Disable(ctx context.Context, id string) (*taxratedomain.Response, error) {
	rate, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	rate.Active = false
	rate.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, rate); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "tax_rate.disable", rate)
	resp := toResponse(rate)
	return &resp, nil
}

func (s *Service) find(ctx context.Context, rawID string) (*taxratedomain.TaxRate, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return nil, taxratedomain.ErrInvalidID
	}
	rate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, taxratedomain.ErrNotFound
	}
	return rate, nil
}

func (s *Service) emitAudit(ctx context.Context, action string, rate *taxratedomain.TaxRate) {
	if s.auditSvc == nil {
		return
	}
	targetID := rate.ID.String()
	_ = s.auditSvc.AuditLog(ctx, "", nil, action, "tax_rate", &targetID, map[string]any{
		"name":         rate.Name,
		"country":      rate.Country,
		"tax_type":     string(rate.TaxType),
		"rate_percent": rate.RatePercent,
		"active":       rate.Active,
	})
}

func toResponse(rate *taxratedomain.TaxRate) taxratedomain.Response {
	return taxratedomain.Response{
		ID:            rate.ID.String(),
		Name:          rate.Name,
		Country:       rate.Country,
		State:         rate.State,
		City:          rate.City,
		PostalCode:    rate.PostalCode,
		TaxType:       rate.TaxType,
		RatePercent:   rate.RatePercent,
		Compound:      rate.Compound,
		ProductTypes:  rate.ProductTypes,
		CustomerTypes: rate.CustomerTypes,
		VATExempt:     rate.VATExempt,
		ReverseCharge: rate.ReverseCharge,
		EffectiveFrom: rate.EffectiveFrom,
		EffectiveTo:   rate.EffectiveTo,
		Active:        rate.Active,
		CreatedAt:     rate.CreatedAt,
		UpdatedAt:     rate.UpdatedAt,
	}
}

func trimPointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
