package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"

	invoicedomain "github.com/billingkit/taxengine/internal/invoice/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) invoicedomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, invoice *invoicedomain.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) List(ctx context.Context, req invoicedomain.ListRequest) ([]invoicedomain.Invoice, error) {
	var invoices []invoicedomain.Invoice
	stmt := r.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).Preload("LineItems")

	if req.CustomerID != "" {
		stmt = stmt.Where("customer_id = ?", req.CustomerID)
	}
	if req.Status != "" {
		stmt = stmt.Where("status = ?", req.Status)
	}
	if req.Limit > 0 {
		stmt = stmt.Limit(req.Limit)
	}
	if req.Offset > 0 {
		stmt = stmt.Offset(req.Offset)
	}

	if err := stmt.Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) NextSequence(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *repository) ListPayments(ctx context.Context, invoiceID snowflake.ID) ([]invoicedomain.Payment, error) {
	var payments []invoicedomain.Payment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) UpdateLocked(ctx context.Context, id snowflake.ID, fn func(tx *gorm.DB, invoice *invoicedomain.Invoice) error) (*invoicedomain.Invoice, error) {
	var updated *invoicedomain.Invoice
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt := tx.Preload("LineItems")
		if tx.Dialector.Name() != "sqlite" {
			stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var invoice invoicedomain.Invoice
		err := stmt.First(&invoice, "id = ?", id).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return invoicedomain.ErrNotFound
			}
			return err
		}

		if err := fn(tx, &invoice); err != nil {
			return err
		}
		if err := tx.Omit("LineItems").Save(&invoice).Error; err != nil {
			return err
		}
		updated = &invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
