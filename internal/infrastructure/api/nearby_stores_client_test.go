package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StoreMap-App/internal/domain/model"
)

func TestNearbyStoresClient_FindNearbyStores(t *testing.T) {
	t.Run("成功レスポンス", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/stores/nearby", r.URL.Path)
			assert.Equal(t, "37.5", r.URL.Query().Get("lat"))
			assert.Equal(t, "127.03", r.URL.Query().Get("lon"))
			w.Write([]byte(`{"success":true,"stores":[{"id":"s1","name":"역삼점","address":"서울","latitude":37.5,"longitude":127.03}]}`))
		}))
		defer srv.Close()

		client := NewNearbyStoresClient(srv.URL + "/")
		stores, err := client.FindNearbyStores(context.Background(), model.Coordinate{Latitude: 37.5, Longitude: 127.03}, 0)
		require.NoError(t, err)
		require.Len(t, stores, 1)
		assert.Equal(t, "s1", stores[0].ID)
		assert.Nil(t, stores[0].Distance)
	})

	t.Run("success=false はエラー", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"stores":[],"message":"db down"}`))
		}))
		defer srv.Close()

		_, err := NewNearbyStoresClient(srv.URL).FindNearbyStores(context.Background(), model.Coordinate{}, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})

	t.Run("500はエラー", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewNearbyStoresClient(srv.URL).FindNearbyStores(context.Background(), model.Coordinate{}, 0)
		assert.Error(t, err)
	})
}
