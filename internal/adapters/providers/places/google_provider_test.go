package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch_PassesQueryAndKey(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/textsearch/json", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"status":"OK","results":[{"place_id":"p1"}]}`))
	}))
	defer srv.Close()

	provider := NewGooglePlacesProviderWithOptions("test-key", srv.URL, srv.Client())

	payload, err := provider.TextSearch(context.Background(), "corner grocery", "us")
	require.NoError(t, err)

	assert.Equal(t, "corner grocery", gotQuery)
	assert.Equal(t, "test-key", gotKey)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "OK", decoded["status"])
}

func TestPlaceDetails_JoinsFields(t *testing.T) {
	var gotFields string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/details/json", r.URL.Path)
		gotFields = r.URL.Query().Get("fields")
		w.Write([]byte(`{"status":"OK","result":{"name":"x"}}`))
	}))
	defer srv.Close()

	provider := NewGooglePlacesProviderWithOptions("test-key", srv.URL, srv.Client())

	_, err := provider.PlaceDetails(context.Background(), "p1", []string{"name", "rating"})
	require.NoError(t, err)
	assert.Equal(t, "name,rating", gotFields)
}

func TestPlaceDetails_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","error_message":"quota"}`))
	}))
	defer srv.Close()

	provider := NewGooglePlacesProviderWithOptions("test-key", srv.URL, srv.Client())

	_, err := provider.TextSearch(context.Background(), "anything", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OVER_QUERY_LIMIT")
}

func TestTextSearch_NoKey(t *testing.T) {
	provider := NewGooglePlacesProviderWithOptions("", "http://unused", nil)
	_, err := provider.TextSearch(context.Background(), "anything", "")
	assert.Error(t, err)
}
