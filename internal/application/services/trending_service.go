package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
	"github.com/snapmap/storefinder/backend/pkg/config"
	"github.com/snapmap/storefinder/backend/pkg/geo"
)

// TrendingService computes recency-weighted click scores for the trending
// ordering. A click's weight decays linearly from 1.0 at click time to the
// configured floor at the window edge; clicks farther than the click radius
// from the search origin are excluded.
type TrendingService struct {
	clicks repositories.ClickEventRepository
	cfg    config.SearchConfig
	now    func() time.Time
}

// NewTrendingService creates a new trending service
func NewTrendingService(clicks repositories.ClickEventRepository, cfg config.SearchConfig) *TrendingService {
	return &TrendingService{
		clicks: clicks,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Scores returns the trending score per store id for the candidate set.
// Stores without matching clicks are simply absent from the map; the sort
// comparator must treat absence as zero.
func (s *TrendingService) Scores(ctx context.Context, origin *entities.Location, stores []*entities.Store) (map[string]float64, error) {
	if len(stores) == 0 {
		return map[string]float64{}, nil
	}

	ids := make([]string, 0, len(stores))
	for _, store := range stores {
		ids = append(ids, store.ID)
	}

	now := s.now()
	window := time.Duration(s.cfg.TrendingWindowDays) * 24 * time.Hour
	events, err := s.clicks.ListRecent(ctx, ids, now.Add(-window))
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64)
	for _, event := range events {
		if origin != nil {
			d := geo.Miles(origin.Latitude, origin.Longitude, event.UserLat, event.UserLng)
			if d > s.cfg.TrendingClickRadiusMiles {
				continue
			}
		}

		age := now.Sub(event.ClickedAt)
		if age < 0 || age > window {
			continue
		}

		fraction := float64(age) / float64(window)
		weight := 1.0 - fraction*(1.0-s.cfg.TrendingDecayFloor)
		scores[event.StoreID] += weight
	}

	return scores, nil
}

// SortTrending orders stores by (score desc, incentive desc, distance asc).
// Absent scores default to zero so the tie-break applies to the whole result
// set, not only stores with clicks.
func SortTrending(stores []*entities.Store, scores map[string]float64) {
	sort.SliceStable(stores, func(i, j int) bool {
		si, sj := scores[stores[i].ID], scores[stores[j].ID]
		if si != sj {
			return si > sj
		}

		ii, ij := stores[i].HasIncentive(), stores[j].HasIncentive()
		if ii != ij {
			return ii
		}

		return distanceOrInf(stores[i]) < distanceOrInf(stores[j])
	})
}

func distanceOrInf(s *entities.Store) float64 {
	if s.DistanceMiles == nil {
		return math.Inf(1)
	}
	return *s.DistanceMiles
}
