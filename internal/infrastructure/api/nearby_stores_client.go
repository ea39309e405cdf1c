package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StoreMap-App/internal/domain/model"
)

// NearbyStoresClient は店舗APIの近隣店舗検索エンドポイントを呼び出すクライアント
type NearbyStoresClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNearbyStoresClient は新しいクライアントを生成する
func NewNearbyStoresClient(baseURL string) *NearbyStoresClient {
	return &NearbyStoresClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FindNearbyStores GET /stores/nearby?lat=&lon= を呼び出す
func (c *NearbyStoresClient) FindNearbyStores(ctx context.Context, center model.Coordinate, thresholdDeg float64) ([]model.Store, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(center.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(center.Longitude, 'f', -1, 64))
	if thresholdDeg > 0 {
		params.Set("threshold", strconv.FormatFloat(thresholdDeg, 'f', -1, 64))
	}

	reqURL := fmt.Sprintf("%s/stores/nearby?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("APIリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("APIからエラーステータスが返されました: %s", resp.Status)
	}

	var apiResp model.NearbyStoresResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("JSONのパースに失敗: %w", err)
	}
	if !apiResp.Success {
		msg := apiResp.Message
		if msg == "" {
			msg = "success=false"
		}
		return nil, errors.New("近隣店舗APIが失敗を返しました: " + msg)
	}
	return apiResp.Stores, nil
}
