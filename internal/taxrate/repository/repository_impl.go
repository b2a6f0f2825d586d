package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"

	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxratedomain.Repository {
	return &repository{db: db}
}

func (r *repository) ListActive(ctx context.Context, country string, at time.Time) ([]taxratedomain.TaxRate, error) {
	var rates []taxratedomain.TaxRate
	err := r.db.WithContext(ctx).
		Model(&taxratedomain.TaxRate{}).
		Where("country = ?", strings.ToUpper(strings.TrimSpace(country))).
		Where("active = ?", true).
		Where("effective_from <= ?", at).
		Where("(effective_to IS NULL OR effective_to >= ?)", at).
		Find(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *repository) Create(ctx context.Context, rate *taxratedomain.TaxRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*taxratedomain.TaxRate, error) {
	var rate taxratedomain.TaxRate
	err := r.db.WithContext(ctx).First(&rate, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

func (r *repository) List(ctx context.Context, filter taxratedomain.ListRequest) ([]taxratedomain.TaxRate, error) {
	var rates []taxratedomain.TaxRate
	stmt := r.db.WithContext(ctx).Model(&taxratedomain.TaxRate{})

	if filter.Country != "" {
		stmt = stmt.Where("country = ?", strings.ToUpper(strings.TrimSpace(filter.Country)))
	}
	if filter.TaxType != "" {
		stmt = stmt.Where("tax_type = ?", filter.TaxType)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	if err := stmt.Order("created_at DESC").Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *repository) Update(ctx context.Context, rate *taxratedomain.TaxRate) error {
	return r.db.WithContext(ctx).Save(rate).Error
}
