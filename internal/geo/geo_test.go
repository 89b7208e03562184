package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCoordinates(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lng  float64
		want [2]string
	}{
		{"kozhikode", 11.2588, 75.7804, [2]string{"11.15 N", "75.46 E"}},
		{"southern and western", -33.8688, -74.0060, [2]string{"33.52 S", "74.00 W"}},
		{"whole degrees", 10, 20, [2]string{"10.00 N", "20.00 E"}},
		{"zero", 0, 0, [2]string{"0.00 N", "0.00 E"}},
		{"just under a degree", 0.99999, -0.99999, [2]string{"0.59 N", "0.59 W"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want[0], FormatLatitude(tt.lat))
			assert.Equal(t, tt.want[1], FormatLongitude(tt.lng))
		})
	}
}

func TestFormatCoordinates_Properties(t *testing.T) {
	for v := -179.99; v <= 179.99; v += 0.731 {
		out := FormatLongitude(v)
		assert.Equal(t, out, FormatLongitude(v), "formatting is idempotent")

		dm, hemi, ok := strings.Cut(out, " ")
		require.True(t, ok)
		deg, min, ok := strings.Cut(dm, ".")
		require.True(t, ok)
		require.Len(t, min, 2)

		minutes, err := strconv.Atoi(min)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, minutes, 0)
		assert.LessOrEqual(t, minutes, 59)

		degrees, err := strconv.Atoi(deg)
		require.NoError(t, err)
		abs := v
		if abs < 0 {
			abs = -abs
		}
		assert.Equal(t, int(abs), degrees)

		if v < 0 {
			assert.Equal(t, "W", hemi)
		} else {
			assert.Equal(t, "E", hemi)
		}
	}
}

func TestPlace_DMS(t *testing.T) {
	p := DefaultGazetteer[0]
	assert.Equal(t, "11.15 N", p.LatitudeDMS())
	assert.Equal(t, "75.46 E", p.LongitudeDMS())
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver()

	places, err := r.Search(context.Background(), "ko")
	require.NoError(t, err)
	require.Len(t, places, 3)
	assert.Equal(t, "Kochi", places[0].Name)

	var selected []Place
	r.OnPlaceSelected(func(p Place) { selected = append(selected, p) })
	r.Select(places[1])

	require.Len(t, selected, 1)
	assert.Equal(t, "Kolkata", selected[0].Name)
}

func TestNominatimResolver_Search(t *testing.T) {
	var gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"display_name":"Kozhikode, Kerala, India","name":"Kozhikode","lat":"11.2588","lon":"75.7804","address":{"state":"Kerala","country":"India"}},
			{"display_name":"Somewhere, Nowhere","lat":"bad","lon":"1"},
			{"display_name":"Calicut Beach, Kerala","lat":"11.25","lon":"75.77","address":{"town":"Calicut","state":"Kerala","country":"India"}}
		]`))
	}))
	t.Cleanup(srv.Close)

	r := NewNominatimResolver(srv.URL, "consultctl-test")
	places, err := r.Search(context.Background(), "kozhikode")

	require.NoError(t, err)
	assert.Equal(t, "kozhikode", gotQuery)
	assert.Equal(t, "consultctl-test", gotAgent)
	require.Len(t, places, 2)
	assert.Equal(t, Place{Name: "Kozhikode", Latitude: 11.2588, Longitude: 75.7804, Country: "India", State: "Kerala"}, places[0])
	assert.Equal(t, "Calicut", places[1].Name)
}

func TestNominatimResolver_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	_, err := NewNominatimResolver(srv.URL, "").Search(context.Background(), "x")
	assert.Error(t, err)
}
