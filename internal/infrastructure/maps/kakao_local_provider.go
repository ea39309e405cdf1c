package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"StoreMap-App/internal/domain/model"
)

const defaultKakaoBaseURL = "https://dapi.kakao.com"

// KakaoLocalProvider はKakao Local APIを使用した住所検索・逆ジオコーディングの実装
type KakaoLocalProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewKakaoLocalProvider は新しいプロバイダを生成する。ratePerSec が0以下なら流量制限なし
func NewKakaoLocalProvider(apiKey string, ratePerSec float64) *KakaoLocalProvider {
	limit := rate.Inf
	burst := 1
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
		burst = int(ratePerSec)
		if burst < 1 {
			burst = 1
		}
	}
	return &KakaoLocalProvider{
		apiKey:     apiKey,
		baseURL:    defaultKakaoBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// WithBaseURL は接続先を差し替える（テスト用のモックサーバーなど）
func (k *KakaoLocalProvider) WithBaseURL(baseURL string) *KakaoLocalProvider {
	k.baseURL = baseURL
	return k
}

// SearchAddress は住所文字列から候補一覧を取得する
func (k *KakaoLocalProvider) SearchAddress(ctx context.Context, query string) ([]model.GeocodeResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var apiResp kakaoAddressSearchResponse
	if err := k.get(ctx, "/v2/local/search/address.json", params, &apiResp); err != nil {
		return nil, err
	}

	results := make([]model.GeocodeResult, 0, len(apiResp.Documents))
	for _, doc := range apiResp.Documents {
		// x が経度、y が緯度
		lng, err := strconv.ParseFloat(doc.X, 64)
		if err != nil {
			return nil, fmt.Errorf("経度のパースに失敗 (%s): %w", doc.X, err)
		}
		lat, err := strconv.ParseFloat(doc.Y, 64)
		if err != nil {
			return nil, fmt.Errorf("緯度のパースに失敗 (%s): %w", doc.Y, err)
		}
		address := doc.AddressName
		if doc.RoadAddress != nil && doc.RoadAddress.AddressName != "" {
			address = doc.RoadAddress.AddressName
		}
		results = append(results, model.GeocodeResult{
			Coordinate: model.Coordinate{Latitude: lat, Longitude: lng},
			Address:    address,
		})
	}
	return results, nil
}

// CoordToAddress は座標から道路名住所と地番住所を取得する。見つからない場合は空文字列
func (k *KakaoLocalProvider) CoordToAddress(ctx context.Context, coord model.Coordinate) (road string, lot string, err error) {
	params := url.Values{}
	params.Set("x", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	params.Set("y", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))

	var apiResp kakaoCoordToAddressResponse
	if err := k.get(ctx, "/v2/local/geo/coord2address.json", params, &apiResp); err != nil {
		return "", "", err
	}
	if len(apiResp.Documents) == 0 {
		return "", "", nil
	}

	doc := apiResp.Documents[0]
	if doc.RoadAddress != nil {
		road = doc.RoadAddress.AddressName
	}
	if doc.Address != nil {
		lot = doc.Address.AddressName
	}
	return road, lot, nil
}

func (k *KakaoLocalProvider) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := k.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("流量制限の待機に失敗: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", k.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+k.apiKey)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("APIリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("APIからエラーステータスが返されました: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("JSONのパースに失敗: %w", err)
	}
	return nil
}

// --- Kakao Local APIのレスポンスをパースするための構造体 ---

type kakaoAddressSearchResponse struct {
	Documents []addressDocument `json:"documents"`
}
type addressDocument struct {
	AddressName string       `json:"address_name"`
	X           string       `json:"x"`
	Y           string       `json:"y"`
	RoadAddress *namedRegion `json:"road_address"`
}
type kakaoCoordToAddressResponse struct {
	Documents []coordDocument `json:"documents"`
}
type coordDocument struct {
	RoadAddress *namedRegion `json:"road_address"`
	Address     *namedRegion `json:"address"`
}
type namedRegion struct {
	AddressName string `json:"address_name"`
}
