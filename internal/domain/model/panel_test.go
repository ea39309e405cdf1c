package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelKind_JSON(t *testing.T) {
	t.Run("オフセットのキーは名前で出力される", func(t *testing.T) {
		v := PanelVisibility{Offsets: map[PanelKind]float64{PanelStoreList: 0, PanelAddressSearch: 400}}
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"store_list":0`)
		assert.Contains(t, string(raw), `"address_search":400`)
		assert.NotContains(t, string(raw), `"3":`)
	})

	t.Run("名前から復元できる", func(t *testing.T) {
		var v PanelVisibility
		require.NoError(t, json.Unmarshal([]byte(`{"offsets":{"store_detail":-240,"clicked_location":0}}`), &v))
		assert.Equal(t, -240.0, v.Offsets[PanelStoreDetail])
		assert.Contains(t, v.Offsets, PanelClickedLocation)
	})

	t.Run("不明な名前はエラー", func(t *testing.T) {
		var v PanelVisibility
		assert.Error(t, json.Unmarshal([]byte(`{"offsets":{"sidebar":1}}`), &v))
	})

	t.Run("ParsePanelKind", func(t *testing.T) {
		kind, ok := ParsePanelKind("store_list")
		assert.True(t, ok)
		assert.Equal(t, PanelStoreList, kind)

		_, ok = ParsePanelKind("")
		assert.False(t, ok)
	})
}
