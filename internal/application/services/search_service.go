package services

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
	"github.com/snapmap/storefinder/backend/internal/domain/providers"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/observability"
	"github.com/snapmap/storefinder/backend/pkg/config"
)

// searchStrategy is one branch of the retrieval cascade. Branches are
// evaluated top to bottom; the first match wins and the choice is
// deterministic for a given request.
type searchStrategy struct {
	name    string
	matches func(req *entities.SearchRequest) bool
	run     func(ctx context.Context, req *entities.SearchRequest) ([]*entities.Store, error)
}

// SearchService dispatches a store search to one of the data service RPCs,
// normalizes and ranks the rows, and applies category filtering. The two RPC
// shapes trade cost for precision: proximity search is cheap and exact but
// ignores free text, fuzzy search ranks by similarity but needs client-side
// distance filtering when an origin exists. The branch order below preserves
// that tradeoff and must not be reordered.
type SearchService struct {
	repo       repositories.StoreSearchRepository
	trending   *TrendingService
	queryCache providers.CacheProvider
	cfg        config.SearchConfig
	cities     *cityTokenMatcher
	strategies []searchStrategy
	metrics    *observability.Metrics
}

// NewSearchService creates a new search service. queryCache and metrics may
// be nil.
func NewSearchService(
	repo repositories.StoreSearchRepository,
	trending *TrendingService,
	queryCache providers.CacheProvider,
	cfg config.SearchConfig,
	metrics *observability.Metrics,
) *SearchService {
	s := &SearchService{
		repo:       repo,
		trending:   trending,
		queryCache: queryCache,
		cfg:        cfg,
		cities:     newCityTokenMatcher(nil),
		metrics:    metrics,
	}

	s.strategies = []searchStrategy{
		{
			name:    "coords_with_text",
			matches: func(r *entities.SearchRequest) bool { return r.HasOrigin() && r.HasQuery() },
			run:     s.runCoordsWithText,
		},
		{
			name:    "coords_only",
			matches: func(r *entities.SearchRequest) bool { return r.HasOrigin() },
			run:     s.runCoordsOnly,
		},
		{
			name:    "city_state",
			matches: func(r *entities.SearchRequest) bool { return r.HasCityState() },
			run:     s.runCityState,
		},
		{
			name:    "zip",
			matches: func(r *entities.SearchRequest) bool { return r.HasZip() },
			run:     s.runZip,
		},
		{
			name: "embedded_city_token",
			matches: func(r *entities.SearchRequest) bool {
				if !r.HasQuery() {
					return false
				}
				_, _, ok := s.cities.Extract(r.Query)
				return ok
			},
			run: s.runEmbeddedCityToken,
		},
		{
			name:    "text_only",
			matches: func(r *entities.SearchRequest) bool { return r.HasQuery() },
			run:     s.runTextOnly,
		},
	}

	return s
}

// Search resolves one store search request to a ranked, filtered result set.
// A request with no search signal at all returns empty without touching the
// data service.
func (s *SearchService) Search(ctx context.Context, req entities.SearchRequest) ([]*entities.Store, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.Search")
	defer span.End()

	if req.RadiusMiles <= 0 {
		req.RadiusMiles = s.cfg.DefaultRadiusMiles
	}

	if cached, ok := s.readQueryCache(ctx, &req); ok {
		return cached, nil
	}

	var stores []*entities.Store
	matched := false
	for _, strategy := range s.strategies {
		if !strategy.matches(&req) {
			continue
		}
		matched = true

		if s.metrics != nil {
			observability.RecordSearchStrategy(ctx, s.metrics, strategy.name)
		}

		var err error
		stores, err = strategy.run(ctx, &req)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		break
	}
	if !matched {
		// No signal at all: never fall through to an unbounded scan.
		return []*entities.Store{}, nil
	}

	stores = ApplyCategoryFilter(stores, req.Category)

	if req.Category == CategoryTrending && s.trending != nil {
		scores, err := s.trending.Scores(ctx, req.Origin, stores)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		SortTrending(stores, scores)
	}

	if s.cfg.ResultLimit > 0 && len(stores) > s.cfg.ResultLimit {
		stores = stores[:s.cfg.ResultLimit]
	}

	s.writeQueryCache(ctx, &req, stores)
	return stores, nil
}

// runCoordsWithText calls the fuzzy RPC with no location filter, then
// filters and orders by locally computed distance. Rows without coordinates
// never survive this branch.
func (s *SearchService) runCoordsWithText(ctx context.Context, req *entities.SearchRequest) ([]*entities.Store, error) {
	rows, err := s.repo.SmartSearch(ctx, repositories.SmartSearchParams{
		SearchText:          req.Query,
		SimilarityThreshold: s.cfg.SimilarityThreshold,
		ResultLimit:         s.fetchLimit(),
	})
	if err != nil {
		return nil, err
	}

	stores := storesFromSmartRows(rows, req.Origin)

	inRadius := stores[:0]
	for _, store := range stores {
		if store.DistanceMiles == nil {
			continue
		}
		if *store.DistanceMiles > req.RadiusMiles {
			continue
		}
		inRadius = append(inRadius, store)
	}
	stores = inRadius

	// Similarity deltas below the tie threshold are noise; break them by
	// distance instead.
	tie := s.cfg.SimilarityTieDelta
	sort.SliceStable(stores, func(i, j int) bool {
		if math.Abs(stores[i].Similarity-stores[j].Similarity) >= tie {
			return stores[i].Similarity > stores[j].Similarity
		}
		return *stores[i].DistanceMiles < *stores[j].DistanceMiles
	})

	return stores, nil
}

// runCoordsOnly calls the proximity RPC directly
func (s *SearchService) runCoordsOnly(ctx context.Context, req *entities.SearchRequest) ([]*entities.Store, error) {
	storeTypes := req.StoreTypes
	if len(storeTypes) == 0 && req.Category != CategoryTrending {
		storeTypes = RuleForCategory(req.Category).StoreTypes
	}

	rows, err := s.repo.GetNearby(ctx, repositories.NearbyParams{
		UserLat:     req.Origin.Latitude,
		UserLng:     req.Origin.Longitude,
		RadiusMiles: req.RadiusMiles,
		StoreTypes:  storeTypes,
		ResultLimit: s.fetchLimit(),
	})
	if err != nil {
		return nil, err
	}

	return storesFromNearbyRows(rows), nil
}

// runCityState calls the fuzzy RPC with an explicit city/state filter
func (s *SearchService) runCityState(ctx context.Context, req *entities.SearchRequest) ([]*entities.Store, error) {
	rows, err := s.repo.SmartSearch(ctx, repositories.SmartSearchParams{
		SearchText:          req.Query,
		SearchCity:          req.City,
		SearchState:         req.State,
		SimilarityThreshold: s.cfg.SimilarityThreshold,
		ResultLimit:         s.fetchLimit(),
	})
	if err != nil {
		return nil, err
	}
	return storesFromSmartRows(rows, nil), nil
}

// runZip calls the fuzzy RPC with a zip filter
func (s *SearchService) runZip(ctx context.Context, req *entities.SearchRequest) ([]*entities.Store, error) {
	rows, err := s.repo.SmartSearch(ctx, repositories.SmartSearchParams{
		SearchText:          req.Query,
		SearchZip:           req.Zip,
		SimilarityThreshold: s.cfg.SimilarityThreshold,
		ResultLimit:         s.fetchLimit(),
	})
	if err != nil {
		return nil, err
	}
	return storesFromSmartRows(rows, nil), nil
}

// runEmbeddedCityToken strips a recognized city token out of the free text
// and searches the remainder as business-name text in that city
func (s *SearchService) runEmbeddedCityToken(ctx context.Context, req *entities.SearchRequest) ([]*entities.Store, error) {
	token, remainder, _ := s.cities.Extract(req.Query)

	rows, err := s.repo.SmartSearch(ctx, repositories.SmartSearchParams{
		SearchText:          remainder,
		SearchCity:          token.City,
		SearchState:         token.State,
		SimilarityThreshold: s.cfg.SimilarityThreshold,
		ResultLimit:         s.fetchLimit(),
	})
	if err != nil {
		return nil, err
	}
	return storesFromSmartRows(rows, nil), nil
}

// runTextOnly runs a nationwide fuzzy search with no distance computation
func (s *SearchService) runTextOnly(ctx context.Context, req *entities.SearchRequest) ([]*entities.Store, error) {
	rows, err := s.repo.SmartSearch(ctx, repositories.SmartSearchParams{
		SearchText:          req.Query,
		SimilarityThreshold: s.cfg.SimilarityThreshold,
		ResultLimit:         s.fetchLimit(),
	})
	if err != nil {
		return nil, err
	}
	return storesFromSmartRows(rows, nil), nil
}

// fetchLimit over-fetches relative to the response cap so post-fetch
// category filtering does not starve the result set
func (s *SearchService) fetchLimit() int {
	if s.cfg.ResultLimit <= 0 {
		return 60
	}
	return s.cfg.ResultLimit * 2
}

func (s *SearchService) readQueryCache(ctx context.Context, req *entities.SearchRequest) ([]*entities.Store, bool) {
	if s.queryCache == nil {
		return nil, false
	}

	data, err := s.queryCache.Get(ctx, req.CacheKey())
	if err != nil {
		return nil, false
	}

	var stores []*entities.Store
	if err := json.Unmarshal(data, &stores); err != nil {
		return nil, false
	}

	if s.metrics != nil {
		observability.RecordCacheHit(ctx, s.metrics, "search")
	}
	return stores, true
}

func (s *SearchService) writeQueryCache(ctx context.Context, req *entities.SearchRequest, stores []*entities.Store) {
	if s.queryCache == nil {
		return
	}

	data, err := json.Marshal(stores)
	if err != nil {
		return
	}

	ttl := s.cfg.QueryCacheTTLMinutes * 60
	if ttl <= 0 {
		ttl = 300
	}

	// A failed cache write never fails the search.
	if err := s.queryCache.Set(ctx, req.CacheKey(), data, ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("search result cache write failed")
	}
}
