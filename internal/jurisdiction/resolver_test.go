package jurisdiction

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/billingkit/taxengine/internal/clock"
	"github.com/billingkit/taxengine/internal/taxrate/repository"
	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupResolver(t *testing.T) (*Resolver, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&taxratedomain.TaxRate{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	resolver := NewResolver(Params{
		Log:   zap.NewNop(),
		Repo:  repository.NewRepository(db),
		Clock: fakeClock,
	})
	return resolver, db, node, fakeClock
}

func seedRate(t *testing.T, db *gorm.DB, node *snowflake.Node, mutate func(*taxratedomain.TaxRate)) taxratedomain.TaxRate {
	t.Helper()

	rate := taxratedomain.TaxRate{
		ID:            node.Generate(),
		Name:          "test rate",
		Country:       "US",
		TaxType:       taxratedomain.TaxTypeSalesTax,
		RatePercent:   5,
		Active:        true,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(&rate)
	}
	// GORM's Create omits zero-value fields that carry a default tag and
	// writes the DB default back into the struct, so capture the intended
	// Active value and persist false explicitly.
	wantActive := rate.Active
	require.NoError(t, db.Create(&rate).Error)
	if !wantActive {
		require.NoError(t, db.Model(&taxratedomain.TaxRate{}).Where("id = ?", rate.ID).Update("active", false).Error)
		rate.Active = false
	}
	return rate
}

func TestGetApplicableTaxRatesSpecificityOrder(t *testing.T) {
	resolver, db, node, _ := setupResolver(t)

	state := "WA"
	city := "Seattle"
	country := seedRate(t, db, node, func(r *taxratedomain.TaxRate) { r.Name = "country" })
	stateRate := seedRate(t, db, node, func(r *taxratedomain.TaxRate) {
		r.Name = "state"
		r.State = &state
	})
	cityRate := seedRate(t, db, node, func(r *taxratedomain.TaxRate) {
		r.Name = "city"
		r.State = &state
		r.City = &city
	})

	loc := Location{Country: "US", State: "WA", City: "Seattle", PostalCode: "98101"}
	rates, err := resolver.GetApplicableTaxRates(context.Background(), loc, "B2C", "GOODS", 10000)
	require.NoError(t, err)
	require.Len(t, rates, 3)
	require.Equal(t, cityRate.ID, rates[0].ID)
	require.Equal(t, stateRate.ID, rates[1].ID)
	require.Equal(t, country.ID, rates[2].ID)
}

func TestGetApplicableTaxRatesFilters(t *testing.T) {
	resolver, db, node, _ := setupResolver(t)

	seedRate(t, db, node, func(r *taxratedomain.TaxRate) { r.Name = "inactive"; r.Active = false })
	seedRate(t, db, node, func(r *taxratedomain.TaxRate) {
		r.Name = "expired"
		to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		r.EffectiveTo = &to
	})
	seedRate(t, db, node, func(r *taxratedomain.TaxRate) {
		r.Name = "wrong product"
		r.ProductTypes = []string{"GOODS"}
	})
	seedRate(t, db, node, func(r *taxratedomain.TaxRate) {
		r.Name = "too small"
		min := int64(50000)
		r.MinimumAmount = &min
	})
	match := seedRate(t, db, node, func(r *taxratedomain.TaxRate) {
		r.Name = "match"
		r.ProductTypes = []string{"SUBSCRIPTIONS"}
		r.CustomerTypes = []string{"ALL"}
	})

	loc := Location{Country: "US", City: "Seattle", PostalCode: "98101"}
	rates, err := resolver.GetApplicableTaxRates(context.Background(), loc, "B2B", "SUBSCRIPTIONS", 10000)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	require.Equal(t, match.ID, rates[0].ID)
}

func TestGetApplicableTaxRatesStateMismatch(t *testing.T) {
	resolver, db, node, _ := setupResolver(t)

	state := "CA"
	seedRate(t, db, node, func(r *taxratedomain.TaxRate) { r.State = &state })

	loc := Location{Country: "US", State: "WA", City: "Seattle", PostalCode: "98101"}
	rates, err := resolver.GetApplicableTaxRates(context.Background(), loc, "B2C", "GOODS", 10000)
	require.NoError(t, err)
	require.Empty(t, rates)
}

func TestCalculateTaxRounding(t *testing.T) {
	rate := taxratedomain.TaxRate{RatePercent: 7.25}

	// 10050 * 7.25% = 728.625, rounds to 729
	if got := CalculateTax(10050, 0, &rate); got != 729 {
		t.Fatalf("tax = %d, want 729", got)
	}
}

func TestCalculateTaxCompound(t *testing.T) {
	simple := taxratedomain.TaxRate{RatePercent: 10}
	compound := taxratedomain.TaxRate{RatePercent: 10, Compound: true}

	first := CalculateTax(10000, 0, &simple)
	if first != 1000 {
		t.Fatalf("first tax = %d, want 1000", first)
	}

	// compound rate taxes the base plus tax already accumulated
	second := CalculateTax(10000, first, &compound)
	if second != 1100 {
		t.Fatalf("compound tax = %d, want 1100", second)
	}

	// non-compound ignores accumulated tax
	third := CalculateTax(10000, first, &simple)
	if third != 1000 {
		t.Fatalf("non-compound tax = %d, want 1000", third)
	}
}

func TestCalculateTaxNeverNegative(t *testing.T) {
	rate := taxratedomain.TaxRate{RatePercent: 10}
	if got := CalculateTax(-5000, 0, &rate); got != 0 {
		t.Fatalf("tax = %d, want 0", got)
	}
}
