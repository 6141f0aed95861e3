package services

import (
	"github.com/snapmap/storefinder/backend/internal/domain/entities"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
	"github.com/snapmap/storefinder/backend/pkg/geo"
)

// storeFromNearbyRow decodes the proximity RPC row shape. The RPC's own
// distance_miles is geometrically exact and preferred over recomputation.
func storeFromNearbyRow(row repositories.NearbyRow) *entities.Store {
	distance := row.DistanceMiles
	return &entities.Store{
		ID:   row.ID,
		Name: row.Name,
		Address: entities.Address{
			Street:  row.Street,
			City:    row.City,
			State:   row.State,
			ZipCode: row.ZipCode,
		},
		StoreType: row.StoreType,
		Location: &entities.Location{
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
		},
		IncentiveProgram: row.IncentiveProgram.String,
		DistanceMiles:    &distance,
	}
}

// storeFromSmartRow decodes the direct-table row shape from the fuzzy search
// RPC. Distance is computed locally when both an origin and row coordinates
// exist; otherwise it stays absent.
func storeFromSmartRow(row repositories.SmartSearchRow, origin *entities.Location) *entities.Store {
	store := &entities.Store{
		ID:   row.ID,
		Name: row.Name,
		Address: entities.Address{
			Street:  row.Street,
			City:    row.City,
			State:   row.State,
			ZipCode: row.ZipCode,
		},
		StoreType:        row.StoreType,
		IncentiveProgram: row.IncentiveProgram.String,
		Similarity:       row.Similarity,
	}

	if row.Latitude.Valid && row.Longitude.Valid {
		store.Location = &entities.Location{
			Latitude:  row.Latitude.Float64,
			Longitude: row.Longitude.Float64,
		}
		if origin != nil {
			d := geo.Miles(origin.Latitude, origin.Longitude, row.Latitude.Float64, row.Longitude.Float64)
			store.DistanceMiles = &d
		}
	}

	return store
}

func storesFromNearbyRows(rows []repositories.NearbyRow) []*entities.Store {
	stores := make([]*entities.Store, 0, len(rows))
	for _, row := range rows {
		stores = append(stores, storeFromNearbyRow(row))
	}
	return stores
}

func storesFromSmartRows(rows []repositories.SmartSearchRow, origin *entities.Location) []*entities.Store {
	stores := make([]*entities.Store, 0, len(rows))
	for _, row := range rows {
		stores = append(stores, storeFromSmartRow(row, origin))
	}
	return stores
}
