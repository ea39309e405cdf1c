package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StoreMap-App/internal/domain/model"
)

func TestKakaoLocalProvider_SearchAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/local/search/address.json", r.URL.Path)
		assert.Equal(t, "KakaoAK test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "강남역", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"documents":[
			{"address_name":"서울 강남구 역삼동 858","x":"127.0276","y":"37.4979","road_address":{"address_name":"서울 강남구 강남대로 396"}},
			{"address_name":"서울 강남구 역삼동 1","x":"127.03","y":"37.5","road_address":null}
		]}`))
	}))
	defer srv.Close()

	p := NewKakaoLocalProvider("test-key", 0).WithBaseURL(srv.URL)
	results, err := p.SearchAddress(context.Background(), "강남역")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "서울 강남구 강남대로 396", results[0].Address)
	assert.InDelta(t, 37.4979, results[0].Latitude, 1e-9)
	assert.InDelta(t, 127.0276, results[0].Longitude, 1e-9)
	assert.Equal(t, "서울 강남구 역삼동 1", results[1].Address)
}

func TestKakaoLocalProvider_CoordToAddress(t *testing.T) {
	t.Run("道路名住所と地番住所", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "127.03", r.URL.Query().Get("x"))
			assert.Equal(t, "37.5", r.URL.Query().Get("y"))
			w.Write([]byte(`{"documents":[{"road_address":{"address_name":"Teheran-ro 123"},"address":{"address_name":"Yeoksam-dong 1"}}]}`))
		}))
		defer srv.Close()

		p := NewKakaoLocalProvider("k", 0).WithBaseURL(srv.URL)
		road, lot, err := p.CoordToAddress(context.Background(), model.Coordinate{Latitude: 37.5, Longitude: 127.03})
		require.NoError(t, err)
		assert.Equal(t, "Teheran-ro 123", road)
		assert.Equal(t, "Yeoksam-dong 1", lot)
	})

	t.Run("結果なし", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"documents":[]}`))
		}))
		defer srv.Close()

		p := NewKakaoLocalProvider("k", 0).WithBaseURL(srv.URL)
		road, lot, err := p.CoordToAddress(context.Background(), model.Coordinate{})
		require.NoError(t, err)
		assert.Empty(t, road)
		assert.Empty(t, lot)
	})

	t.Run("エラーステータス", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		p := NewKakaoLocalProvider("k", 0).WithBaseURL(srv.URL)
		_, _, err := p.CoordToAddress(context.Background(), model.Coordinate{})
		assert.Error(t, err)
	})
}
