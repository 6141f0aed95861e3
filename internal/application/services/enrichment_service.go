package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
	"github.com/snapmap/storefinder/backend/internal/domain/providers"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/observability"
	"github.com/snapmap/storefinder/backend/pkg/config"
	apperrors "github.com/snapmap/storefinder/backend/pkg/errors"
)

// Result sources
const (
	EnrichmentSourceCache    = "cache"
	EnrichmentSourceUpstream = "upstream"
)

// EnrichmentParams carries the arguments of one enrichment request. Query
// and Region apply to text_search; PlaceID and Fields to place_details.
type EnrichmentParams struct {
	Query   string   `json:"query,omitempty"`
	Region  string   `json:"region,omitempty"`
	PlaceID string   `json:"place_id,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// EnrichmentResult is what the gateway hands back: the payload, where it
// came from, and whether the budget ceiling forced a degraded cache serve.
type EnrichmentResult struct {
	Source         string          `json:"source"`
	BudgetExceeded bool            `json:"budget_exceeded"`
	Payload        json.RawMessage `json:"payload"`
}

type operationSpec struct {
	pricePer1000 float64
	freeCalls    int
	ttl          time.Duration
}

// EnrichmentService proxies the metered places API behind a persistent cache
// and a monthly spend ceiling. Per request: fresh cache hit returns
// immediately; otherwise the budget gate decides whether the upstream call
// may happen; over-budget or failed calls degrade to any cached value, stale
// included, before failing the caller.
type EnrichmentService struct {
	places    providers.PlacesProvider
	cache     repositories.EnrichmentCacheRepository
	ledger    repositories.UsageLedgerRepository
	budgetLog repositories.BudgetEventRepository
	cfg       config.PlacesConfig
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewEnrichmentService creates a new enrichment gateway. metrics may be nil.
func NewEnrichmentService(
	places providers.PlacesProvider,
	cache repositories.EnrichmentCacheRepository,
	ledger repositories.UsageLedgerRepository,
	budgetLog repositories.BudgetEventRepository,
	cfg config.PlacesConfig,
	metrics *observability.Metrics,
) *EnrichmentService {
	return &EnrichmentService{
		places:    places,
		cache:     cache,
		ledger:    ledger,
		budgetLog: budgetLog,
		cfg:       cfg,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Fetch resolves one enrichment request through the cache/budget pipeline
func (s *EnrichmentService) Fetch(ctx context.Context, operation string, params EnrichmentParams) (*EnrichmentResult, error) {
	ctx, span := observability.StartSpan(ctx, "EnrichmentService.Fetch")
	defer span.End()

	spec, err := s.operationSpec(operation)
	if err != nil {
		return nil, err
	}

	key, err := cacheKey(operation, params)
	if err != nil {
		return nil, err
	}

	logger := observability.LoggerFromContext(ctx)
	now := s.now()

	entry, cacheErr := s.cache.Get(ctx, key)
	if cacheErr == nil && entry.IsFresh(now) {
		if s.metrics != nil {
			observability.RecordCacheHit(ctx, s.metrics, operation)
			observability.RecordPlacesCall(ctx, s.metrics, operation, EnrichmentSourceCache)
		}
		return &EnrichmentResult{Source: EnrichmentSourceCache, Payload: entry.Payload}, nil
	}
	if s.metrics != nil {
		observability.RecordCacheMiss(ctx, s.metrics, operation)
	}

	month := entities.MonthKey(now)
	allowed, preCallCost, err := s.checkBudget(ctx, month, operation, spec)
	if err != nil {
		return nil, err
	}

	if !allowed {
		s.logBudgetEvent(ctx, month, operation, preCallCost)
		if s.metrics != nil {
			observability.RecordBudgetDenial(ctx, s.metrics, operation)
		}

		if cacheErr == nil {
			// Degraded success: the caller still gets data, flagged.
			logger.Warn().
				Str("operation", operation).
				Str("month", month).
				Float64("pre_call_cost_usd", preCallCost).
				Msg("budget ceiling reached, serving cached value")
			return &EnrichmentResult{
				Source:         EnrichmentSourceCache,
				BudgetExceeded: true,
				Payload:        entry.Payload,
			}, nil
		}
		return nil, apperrors.NewBudgetExceededError(
			fmt.Sprintf("monthly ceiling reached for %s and no cached value exists", operation))
	}

	payload, upstreamErr := s.callUpstream(ctx, operation, params)
	if upstreamErr != nil {
		if cacheErr == nil {
			logger.Warn().
				Err(upstreamErr).
				Str("operation", operation).
				Msg("places call failed, serving cached value")
			return &EnrichmentResult{Source: EnrichmentSourceCache, Payload: entry.Payload}, nil
		}
		return nil, apperrors.NewEnrichmentUpstreamError("places call failed with no cached fallback", upstreamErr)
	}

	if s.metrics != nil {
		observability.RecordPlacesCall(ctx, s.metrics, operation, EnrichmentSourceUpstream)
	}

	// The upstream call already happened; ledger and cache failures must not
	// take the result away from the caller.
	if _, err := s.ledger.RecordUsage(ctx, month, operation, spec.pricePer1000/1000.0, spec.freeCalls); err != nil {
		logger.Error().Err(err).Str("operation", operation).Msg("failed to record places usage")
	}
	if err := s.cache.Put(ctx, key, payload, now.Add(spec.ttl)); err != nil {
		logger.Warn().Err(err).Str("operation", operation).Msg("enrichment cache write failed")
	}

	return &EnrichmentResult{Source: EnrichmentSourceUpstream, Payload: payload}, nil
}

// checkBudget reads the month's accumulated cost and decides whether the
// next call may proceed. A call whose free-tier allowance remains has zero
// marginal cost and always passes; a billable call is refused once the
// accumulated cost has reached the ceiling, so overshoot is bounded by one
// call's marginal cost. The returned preCallCost feeds the audit log on
// refusal.
func (s *EnrichmentService) checkBudget(ctx context.Context, month, operation string, spec operationSpec) (bool, float64, error) {
	rows, err := s.ledger.ListMonth(ctx, month)
	if err != nil {
		return false, 0, err
	}

	total := 0.0
	freeRemaining := spec.freeCalls
	for _, row := range rows {
		total += row.CostUSD
		if row.Operation == operation {
			freeRemaining = row.FreeCallsRemaining
		}
	}

	if freeRemaining > 0 {
		return true, total, nil
	}

	return total < s.cfg.MonthlyCeilingUSD, total, nil
}

func (s *EnrichmentService) callUpstream(ctx context.Context, operation string, params EnrichmentParams) (json.RawMessage, error) {
	switch operation {
	case providers.PlacesOpTextSearch:
		return s.places.TextSearch(ctx, params.Query, params.Region)
	case providers.PlacesOpPlaceDetails:
		return s.places.PlaceDetails(ctx, params.PlaceID, params.Fields)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown places operation %q", operation))
	}
}

// logBudgetEvent is fire-and-forget: the audit log is write-only and its
// failures never affect the request.
func (s *EnrichmentService) logBudgetEvent(ctx context.Context, month, operation string, preCallCost float64) {
	event := &entities.BudgetEvent{
		Month:          month,
		CeilingUSD:     s.cfg.MonthlyCeilingUSD,
		Operation:      operation,
		PreCallCostUSD: preCallCost,
	}
	if err := s.budgetLog.Log(ctx, event); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("failed to log budget event")
	}
}

func (s *EnrichmentService) operationSpec(operation string) (operationSpec, error) {
	switch operation {
	case providers.PlacesOpTextSearch:
		return operationSpec{
			pricePer1000: s.cfg.TextSearchPricePer1000,
			freeCalls:    s.cfg.TextSearchFreeCalls,
			ttl:          time.Duration(s.cfg.TextSearchTTLDays) * 24 * time.Hour,
		}, nil
	case providers.PlacesOpPlaceDetails:
		return operationSpec{
			pricePer1000: s.cfg.PlaceDetailsPricePer1000,
			freeCalls:    s.cfg.PlaceDetailsFreeCalls,
			ttl:          time.Duration(s.cfg.PlaceDetailsTTLDays) * 24 * time.Hour,
		}, nil
	default:
		return operationSpec{}, apperrors.NewValidationError(fmt.Sprintf("unknown places operation %q", operation))
	}
}

// cacheKey builds the stable key for one request. Two place_details requests
// for the same place but different field sets get distinct entries: a
// narrower field set cannot be assumed to satisfy a broader one.
func cacheKey(operation string, params EnrichmentParams) (string, error) {
	switch operation {
	case providers.PlacesOpTextSearch:
		query := strings.Join(strings.Fields(strings.ToLower(params.Query)), " ")
		if query == "" {
			return "", apperrors.NewValidationError("text search requires a query")
		}
		return fmt.Sprintf("places:text:%s:%s", hashValue(query), hashValue(params.Region)), nil

	case providers.PlacesOpPlaceDetails:
		if strings.TrimSpace(params.PlaceID) == "" {
			return "", apperrors.NewValidationError("place details requires a place id")
		}
		fields := append([]string(nil), params.Fields...)
		for i := range fields {
			fields[i] = strings.ToLower(strings.TrimSpace(fields[i]))
		}
		sort.Strings(fields)
		return fmt.Sprintf("places:details:%s:%s", params.PlaceID, hashValue(strings.Join(fields, ","))), nil

	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown places operation %q", operation))
	}
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
