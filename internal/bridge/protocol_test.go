package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"StoreMap-App/internal/domain/model"
)

func TestCommandType_Immediate(t *testing.T) {
	immediate := []CommandType{CommandInit, CommandRequestPermission, CommandRequestPosition, CommandAlert, CommandNavigateBack}
	for _, typ := range immediate {
		assert.True(t, typ.Immediate(), typ)
	}
	queued := []CommandType{CommandUserLocation, CommandUserLocationWithZoom, CommandMapNavigation, CommandAddStores,
		CommandClearMarkers, CommandClearAllMarkers, CommandHighlightStore, CommandShowClickMarker, CommandPanelState}
	for _, typ := range queued {
		assert.False(t, typ.Immediate(), typ)
	}
}

func TestEncodeCommand(t *testing.T) {
	t.Run("種別ごとのフィールドのみ出力", func(t *testing.T) {
		raw, err := EncodeCommand(UserLocationWithZoom(model.Coordinate{Latitude: 37.4979, Longitude: 127.0276}, 3))
		require.NoError(t, err)
		assert.Equal(t, "userLocationWithZoom", gjson.GetBytes(raw, "type").String())
		assert.Equal(t, 37.4979, gjson.GetBytes(raw, "lat").Float())
		assert.Equal(t, int64(3), gjson.GetBytes(raw, "zoom").Int())
		assert.False(t, gjson.GetBytes(raw, "stores").Exists())

		raw, err = EncodeCommand(ShowClickMarker(model.Coordinate{Latitude: 1, Longitude: 2}))
		require.NoError(t, err)
		assert.False(t, gjson.GetBytes(raw, "zoom").Exists())
	})

	t.Run("店舗なしは空配列", func(t *testing.T) {
		raw, err := EncodeCommand(AddStores(nil))
		require.NoError(t, err)
		assert.Equal(t, "[]", gjson.GetBytes(raw, "stores").Raw)
	})

	t.Run("AddStores は呼び出し側のスライスを共有しない", func(t *testing.T) {
		stores := []model.Store{{ID: "a"}}
		cmd := AddStores(stores)
		stores[0].ID = "b"
		assert.Equal(t, "a", cmd.Stores[0].ID)
	})

	t.Run("パネル状態", func(t *testing.T) {
		addr := "테헤란로 123"
		raw, err := EncodeCommand(PanelState(model.PanelVisibility{
			ClickedLocationOpen: true,
			ClickedLocation:     &model.ClickedLocation{Latitude: 37.5, Longitude: 127.03, Address: &addr},
			Offsets:             map[model.PanelKind]float64{model.PanelClickedLocation: 120, model.PanelStoreList: 400},
		}))
		require.NoError(t, err)
		assert.True(t, gjson.GetBytes(raw, "panels.clickedLocation").Bool())
		assert.False(t, gjson.GetBytes(raw, "panels.storeDetail").Bool())
		assert.Equal(t, addr, gjson.GetBytes(raw, "panels.clicked.address").String())
		assert.Equal(t, 120.0, gjson.GetBytes(raw, "panels.offsets.clicked_location").Float())

		cmd, err := DecodeCommand(raw)
		require.NoError(t, err)
		assert.Equal(t, 400.0, cmd.Panels.Offsets[model.PanelStoreList])
	})

	t.Run("必須ペイロードが無いとエラー", func(t *testing.T) {
		_, err := EncodeCommand(Command{Type: CommandPanelState})
		assert.Error(t, err)
		_, err = EncodeCommand(Command{Type: CommandAlert})
		assert.Error(t, err)
		_, err = EncodeCommand(Command{Type: "zoomIn"})
		assert.ErrorIs(t, err, ErrUnknownMessage)
	})
}

func TestDecodeEvent(t *testing.T) {
	t.Run("地図タップ", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"mapClicked","lat":37.5,"lon":127.03}`))
		require.NoError(t, err)
		assert.Equal(t, EventMapClicked, ev.Type)
		assert.Equal(t, 37.5, ev.Latitude)
		assert.Equal(t, 127.03, ev.Longitude)
	})

	t.Run("店舗選択", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"storeSelected","store":{"id":"s1","name":"역삼점","address":"서울","latitude":37.5,"longitude":127.03}}`))
		require.NoError(t, err)
		require.NotNil(t, ev.Store)
		assert.Equal(t, "s1", ev.Store.ID)
		assert.Equal(t, "역삼점", ev.Store.Name)
	})

	t.Run("ユーザー操作", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"userAction","action":"searchAddress","query":"강남역"}`))
		require.NoError(t, err)
		assert.Equal(t, ActionSearchAddress, ev.Action)
		assert.Equal(t, "강남역", ev.Query)
	})

	t.Run("パネルのドラッグ", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"userAction","action":"dragPanel","panel":"store_list","delta":-32.5}`))
		require.NoError(t, err)
		assert.Equal(t, ActionDragPanel, ev.Action)
		assert.Equal(t, "store_list", ev.Panel)
		assert.Equal(t, -32.5, ev.Delta)
	})

	t.Run("不正なメッセージ", func(t *testing.T) {
		cases := map[string]string{
			"JSONでない":     `{"type":`,
			"type なし":     `{"lat":1}`,
			"座標なしのタップ":    `{"type":"mapClicked","lat":1}`,
			"店舗IDなし":      `{"type":"storeSelected","store":{"name":"x"}}`,
			"店舗がオブジェクトでない": `{"type":"storeSelected","store":"s1"}`,
		}
		for name, raw := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := DecodeEvent([]byte(raw))
				assert.Error(t, err)
			})
		}
	})

	t.Run("不明な type", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"type":"zoomChanged"}`))
		assert.ErrorIs(t, err, ErrUnknownMessage)
	})
}

func TestRenderSurface(t *testing.T) {
	t.Run("キーと接続先を埋め込む", func(t *testing.T) {
		html, err := RenderSurface(SurfaceParams{KakaoJSKey: "js-key", WebSocketPath: "/map/ws", DefaultLat: 37.4979, DefaultLon: 127.0276, DefaultZoom: 3})
		require.NoError(t, err)
		body := string(html)
		assert.Contains(t, body, "appkey=js-key")
		assert.Contains(t, body, "autoload=false")
		assert.Regexp(t, `WS_PATH = \s*"\\?/map\\?/ws"`, body)
		assert.Regexp(t, `POLL_ATTEMPTS = \s*100\s*;`, body)
	})

	t.Run("店舗名などはマークアップとして解釈されない", func(t *testing.T) {
		html, err := RenderSurface(SurfaceParams{KakaoJSKey: "js-key", WebSocketPath: "/map/ws"})
		require.NoError(t, err)
		body := string(html)
		assert.NotContains(t, body, "innerHTML")
		assert.NotContains(t, body, "insertAdjacentHTML")
		assert.Contains(t, body, "textContent")
	})

	t.Run("閉じる・戻る・ドラッグ操作を送る", func(t *testing.T) {
		html, err := RenderSurface(SurfaceParams{KakaoJSKey: "js-key", WebSocketPath: "/map/ws"})
		require.NoError(t, err)
		body := string(html)
		for _, a := range []UserAction{ActionClosePanel, ActionCloseAddressSearch, ActionNavigateBack,
			ActionDragPanel, ActionReleasePanel, ActionExpandPanel, ActionOpenAddressSearch, ActionSearchAddress} {
			assert.Contains(t, body, "'"+string(a)+"'", a)
		}
	})

	t.Run("キー未設定はエラー", func(t *testing.T) {
		_, err := RenderSurface(SurfaceParams{})
		assert.Error(t, err)
	})
}
