package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
	"github.com/snapmap/storefinder/backend/internal/domain/providers"
	"github.com/snapmap/storefinder/backend/pkg/config"
	apperrors "github.com/snapmap/storefinder/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlacesProvider struct {
	textCalls    int
	detailsCalls int
	payload      json.RawMessage
	err          error
}

func (f *fakePlacesProvider) TextSearch(ctx context.Context, query, region string) (json.RawMessage, error) {
	f.textCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func (f *fakePlacesProvider) PlaceDetails(ctx context.Context, placeID string, fields []string) (json.RawMessage, error) {
	f.detailsCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type fakeEnrichmentCache struct {
	entries map[string]*entities.CacheEntry
	putErr  error
}

func newFakeEnrichmentCache() *fakeEnrichmentCache {
	return &fakeEnrichmentCache{entries: make(map[string]*entities.CacheEntry)}
}

func (f *fakeEnrichmentCache) Get(ctx context.Context, key string) (*entities.CacheEntry, error) {
	entry, ok := f.entries[key]
	if !ok {
		return nil, apperrors.NewNotFoundError("cache entry not found")
	}
	return entry, nil
}

func (f *fakeEnrichmentCache) Put(ctx context.Context, key string, payload json.RawMessage, freshUntil time.Time) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[key] = &entities.CacheEntry{Key: key, Payload: payload, FreshUntil: freshUntil}
	return nil
}

type fakeUsageLedger struct {
	rows map[string]*entities.UsageLedgerEntry
}

func newFakeUsageLedger() *fakeUsageLedger {
	return &fakeUsageLedger{rows: make(map[string]*entities.UsageLedgerEntry)}
}

func (f *fakeUsageLedger) MonthlyCost(ctx context.Context, month string) (float64, error) {
	total := 0.0
	for _, row := range f.rows {
		if row.Month == month {
			total += row.CostUSD
		}
	}
	return total, nil
}

func (f *fakeUsageLedger) RecordUsage(ctx context.Context, month, operation string, costPerCall float64, freeTierCalls int) (*entities.UsageLedgerEntry, error) {
	key := month + "/" + operation
	row, ok := f.rows[key]
	if !ok {
		row = &entities.UsageLedgerEntry{Month: month, Operation: operation, FreeCallsRemaining: freeTierCalls}
		f.rows[key] = row
	}
	row.TotalCalls++
	if row.FreeCallsRemaining > 0 {
		row.FreeCallsRemaining--
	} else {
		row.BillableCalls++
		row.CostUSD += costPerCall
	}
	return row, nil
}

func (f *fakeUsageLedger) ListMonth(ctx context.Context, month string) ([]*entities.UsageLedgerEntry, error) {
	var out []*entities.UsageLedgerEntry
	for _, row := range f.rows {
		if row.Month == month {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeBudgetLog struct {
	events []*entities.BudgetEvent
}

func (f *fakeBudgetLog) Log(ctx context.Context, event *entities.BudgetEvent) error {
	f.events = append(f.events, event)
	return nil
}

func testPlacesConfig() config.PlacesConfig {
	return config.PlacesConfig{
		MonthlyCeilingUSD:        200.0,
		TextSearchPricePer1000:   32.0,
		TextSearchFreeCalls:      0,
		TextSearchTTLDays:        7,
		PlaceDetailsPricePer1000: 17.0,
		PlaceDetailsFreeCalls:    0,
		PlaceDetailsTTLDays:      14,
	}
}

type enrichmentFixture struct {
	svc       *EnrichmentService
	places    *fakePlacesProvider
	cache     *fakeEnrichmentCache
	ledger    *fakeUsageLedger
	budgetLog *fakeBudgetLog
}

func newEnrichmentFixture(cfg config.PlacesConfig) *enrichmentFixture {
	f := &enrichmentFixture{
		places:    &fakePlacesProvider{payload: json.RawMessage(`{"results":[]}`)},
		cache:     newFakeEnrichmentCache(),
		ledger:    newFakeUsageLedger(),
		budgetLog: &fakeBudgetLog{},
	}
	f.svc = NewEnrichmentService(f.places, f.cache, f.ledger, f.budgetLog, cfg, nil)
	return f
}

func TestFetch_FreshHitSkipsUpstream(t *testing.T) {
	fx := newEnrichmentFixture(testPlacesConfig())
	params := EnrichmentParams{Query: "grocery near me", Region: "us"}

	first, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, params)
	require.NoError(t, err)
	assert.Equal(t, EnrichmentSourceUpstream, first.Source)

	second, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, params)
	require.NoError(t, err)
	assert.Equal(t, EnrichmentSourceCache, second.Source)
	assert.False(t, second.BudgetExceeded)
	assert.Equal(t, 1, fx.places.textCalls)

	// Only the upstream call touched the ledger.
	rows, err := fx.ledger.ListMonth(context.Background(), entities.MonthKey(time.Now()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].TotalCalls)
}

func TestFetch_QueryNormalizationSharesCacheEntry(t *testing.T) {
	fx := newEnrichmentFixture(testPlacesConfig())

	_, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch,
		EnrichmentParams{Query: "  Grocery   Near Me ", Region: "us"})
	require.NoError(t, err)

	result, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch,
		EnrichmentParams{Query: "grocery near me", Region: "us"})
	require.NoError(t, err)

	assert.Equal(t, EnrichmentSourceCache, result.Source)
	assert.Equal(t, 1, fx.places.textCalls)
}

func TestFetch_BudgetCeilingBoundsSpend(t *testing.T) {
	// $1.00 ceiling, $0.60 per call, no free tier. Two calls accumulate
	// $1.20; the third must be refused even though the second already
	// overshot, so total spend is bounded by ceiling plus one call.
	cfg := testPlacesConfig()
	cfg.MonthlyCeilingUSD = 1.00
	cfg.TextSearchPricePer1000 = 600.0
	fx := newEnrichmentFixture(cfg)

	_, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, EnrichmentParams{Query: "q one"})
	require.NoError(t, err)
	_, err = fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, EnrichmentParams{Query: "q two"})
	require.NoError(t, err)

	_, err = fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, EnrichmentParams{Query: "q three"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeBudgetExceeded))
	assert.Equal(t, 2, fx.places.textCalls)

	require.Len(t, fx.budgetLog.events, 1)
	assert.InDelta(t, 1.20, fx.budgetLog.events[0].PreCallCostUSD, 1e-9)
	assert.Equal(t, providers.PlacesOpTextSearch, fx.budgetLog.events[0].Operation)
}

func TestFetch_BudgetExceededServesStaleCache(t *testing.T) {
	cfg := testPlacesConfig()
	cfg.MonthlyCeilingUSD = 1.00
	cfg.TextSearchPricePer1000 = 600.0
	fx := newEnrichmentFixture(cfg)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fx.svc.now = func() time.Time { return base }

	_, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, EnrichmentParams{Query: "q one"})
	require.NoError(t, err)
	_, err = fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, EnrichmentParams{Query: "q two"})
	require.NoError(t, err)

	// Past the 7 day TTL but inside the same billing month: the entry for
	// "q one" is stale, the ceiling is spent, and the stale entry is still
	// better than nothing.
	fx.svc.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }

	result, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, EnrichmentParams{Query: "q one"})
	require.NoError(t, err)
	assert.Equal(t, EnrichmentSourceCache, result.Source)
	assert.True(t, result.BudgetExceeded)
	assert.Equal(t, 2, fx.places.textCalls)
}

func TestFetch_FreeTierIgnoresCeiling(t *testing.T) {
	cfg := testPlacesConfig()
	cfg.MonthlyCeilingUSD = 0.0
	cfg.TextSearchFreeCalls = 5
	cfg.TextSearchPricePer1000 = 600.0
	fx := newEnrichmentFixture(cfg)

	result, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, EnrichmentParams{Query: "q one"})
	require.NoError(t, err)
	assert.Equal(t, EnrichmentSourceUpstream, result.Source)

	rows, err := fx.ledger.ListMonth(context.Background(), entities.MonthKey(time.Now()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].BillableCalls)
	assert.Equal(t, 4, rows[0].FreeCallsRemaining)
	assert.Zero(t, rows[0].CostUSD)
}

func TestFetch_DetailsFieldSetsGetDistinctEntries(t *testing.T) {
	fx := newEnrichmentFixture(testPlacesConfig())
	ctx := context.Background()

	_, err := fx.svc.Fetch(ctx, providers.PlacesOpPlaceDetails,
		EnrichmentParams{PlaceID: "place-1", Fields: []string{"name"}})
	require.NoError(t, err)

	_, err = fx.svc.Fetch(ctx, providers.PlacesOpPlaceDetails,
		EnrichmentParams{PlaceID: "place-1", Fields: []string{"name", "rating"}})
	require.NoError(t, err)
	assert.Equal(t, 2, fx.places.detailsCalls)

	// Field order does not matter for the repeat lookup.
	result, err := fx.svc.Fetch(ctx, providers.PlacesOpPlaceDetails,
		EnrichmentParams{PlaceID: "place-1", Fields: []string{"rating", "name"}})
	require.NoError(t, err)
	assert.Equal(t, EnrichmentSourceCache, result.Source)
	assert.Equal(t, 2, fx.places.detailsCalls)
}

func TestFetch_UpstreamFailureServesStaleCache(t *testing.T) {
	fx := newEnrichmentFixture(testPlacesConfig())
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fx.svc.now = func() time.Time { return base }

	params := EnrichmentParams{Query: "grocery"}
	_, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, params)
	require.NoError(t, err)

	fx.svc.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	fx.places.err = errors.New("upstream timeout")

	result, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, params)
	require.NoError(t, err)
	assert.Equal(t, EnrichmentSourceCache, result.Source)
	assert.False(t, result.BudgetExceeded)
}

func TestFetch_UpstreamFailureWithoutCacheFails(t *testing.T) {
	fx := newEnrichmentFixture(testPlacesConfig())
	fx.places.err = errors.New("upstream timeout")

	_, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, EnrichmentParams{Query: "grocery"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeEnrichmentUpstream))
}

func TestFetch_CacheWriteFailureDoesNotFailRequest(t *testing.T) {
	fx := newEnrichmentFixture(testPlacesConfig())
	fx.cache.putErr = errors.New("disk full")

	result, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, EnrichmentParams{Query: "grocery"})
	require.NoError(t, err)
	assert.Equal(t, EnrichmentSourceUpstream, result.Source)
}

func TestFetch_UnknownOperationRejected(t *testing.T) {
	fx := newEnrichmentFixture(testPlacesConfig())

	_, err := fx.svc.Fetch(context.Background(), "autocomplete", EnrichmentParams{Query: "grocery"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestFetch_TextSearchRequiresQuery(t *testing.T) {
	fx := newEnrichmentFixture(testPlacesConfig())

	_, err := fx.svc.Fetch(context.Background(), providers.PlacesOpTextSearch, EnrichmentParams{Query: "   "})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
