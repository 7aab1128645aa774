package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	models "cafe-cart/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleGeocoderReverse(t *testing.T) {
	var gotPath, gotLatLng, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLatLng = r.URL.Query().Get("latlng")
		gotKey = r.URL.Query().Get("key")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"12 MG Road, Bengaluru"},{"formatted_address":"Bengaluru"}]}`))
	}))
	defer srv.Close()

	g := NewGoogleGeocoder(srv.URL+"/", "secret", time.Second)
	addr, err := g.Reverse(context.Background(), models.LatLng{Lat: 12.9716, Lng: 77.5946})
	require.NoError(t, err)
	assert.Equal(t, "12 MG Road, Bengaluru", addr)
	assert.Equal(t, "/maps/api/geocode/json", gotPath)
	assert.Equal(t, "12.9716,77.5946", gotLatLng)
	assert.Equal(t, "secret", gotKey)
}

func TestGoogleGeocoderFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"zero results": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		},
		"denied": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			g := NewGoogleGeocoder(srv.URL, "k", time.Second)
			addr, err := g.Reverse(context.Background(), models.LatLng{Lat: 1, Lng: 2})
			assert.Error(t, err)
			assert.Empty(t, addr)
		})
	}
}

func TestGoogleGeocoderWithoutKey(t *testing.T) {
	g := NewGoogleGeocoder("", "", 0)
	_, err := g.Reverse(context.Background(), models.LatLng{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNop(t *testing.T) {
	_, err := Nop{}.Reverse(context.Background(), models.LatLng{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMapLink(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps?q=12.9716,77.5946", MapLink(models.LatLng{Lat: 12.9716, Lng: 77.5946}))
	assert.Equal(t, "https://www.google.com/maps?q=-33.5,0", MapLink(models.LatLng{Lat: -33.5, Lng: 0}))
}
