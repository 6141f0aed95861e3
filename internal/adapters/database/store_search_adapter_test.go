package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/snapmap/storefinder/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeColumns(last string) []string {
	return []string{
		"id", "name", "street", "city", "state", "zip_code", "store_type",
		"latitude", "longitude", "incentive_program", last,
	}
}

func TestSmartSearch_ScansNullableCoordinates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewStoreSearchAdapter(postgres.NewClientWithDB(db))

	rows := sqlmock.NewRows(storeColumns("similarity")).
		AddRow("s1", "Corner Grocery", "1 Main St", "Austin", "TX", "78701", "grocery", 30.27, -97.74, "double_up", 0.91).
		AddRow("s2", "Midtown Market", "2 Oak St", "Austin", "TX", "78702", "grocery", nil, nil, nil, 0.72)

	mock.ExpectQuery("FROM smart_store_search").
		WithArgs("grocery", "austin", "TX", "", 0.3, 60).
		WillReturnRows(rows)

	results, err := adapter.SmartSearch(context.Background(), repositories.SmartSearchParams{
		SearchText:          "grocery",
		SearchCity:          "austin",
		SearchState:         "TX",
		SimilarityThreshold: 0.3,
		ResultLimit:         60,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Latitude.Valid)
	assert.Equal(t, "double_up", results[0].IncentiveProgram.String)
	assert.False(t, results[1].Latitude.Valid)
	assert.False(t, results[1].IncentiveProgram.Valid)
}

func TestGetNearby_NilTypesMeansNoFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewStoreSearchAdapter(postgres.NewClientWithDB(db))

	rows := sqlmock.NewRows(storeColumns("distance_miles")).
		AddRow("s1", "Corner Grocery", "1 Main St", "Austin", "TX", "78701", "grocery", 30.27, -97.74, nil, 1.2)

	mock.ExpectQuery("FROM get_nearby_stores").
		WithArgs(30.27, -97.74, 25.0, nil, 60).
		WillReturnRows(rows)

	results, err := adapter.GetNearby(context.Background(), repositories.NearbyParams{
		UserLat:     30.27,
		UserLng:     -97.74,
		RadiusMiles: 25.0,
		ResultLimit: 60,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1.2, results[0].DistanceMiles)
}

func TestSmartSearch_RPCFailureIsTyped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewStoreSearchAdapter(postgres.NewClientWithDB(db))

	mock.ExpectQuery("FROM smart_store_search").
		WillReturnError(errors.New("connection reset"))

	_, err = adapter.SmartSearch(context.Background(), repositories.SmartSearchParams{SearchText: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUpstreamQuery))
}
