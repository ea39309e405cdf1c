package bridge

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
)

// ページ側のSDK読み込みポーリング設定
const (
	SDKPollAttempts   = 100
	SDKPollIntervalMS = 100
)

//go:embed surface.html
var surfaceHTML string

var surfaceTemplate = template.Must(template.New("surface").Parse(surfaceHTML))

// SurfaceParams レンダーサーフェスのHTML生成パラメータ
type SurfaceParams struct {
	KakaoJSKey     string
	WebSocketPath  string
	SearchAddress  string
	DefaultLat     float64
	DefaultLon     float64
	DefaultZoom    int
	PollAttempts   int
	PollIntervalMS int
}

// RenderSurface 地図SDKを読み込み、ブリッジで通信するHTMLを生成する
func RenderSurface(p SurfaceParams) ([]byte, error) {
	if p.KakaoJSKey == "" {
		return nil, fmt.Errorf("Kakao JavaScriptキーが設定されていません")
	}
	if p.PollAttempts <= 0 {
		p.PollAttempts = SDKPollAttempts
	}
	if p.PollIntervalMS <= 0 {
		p.PollIntervalMS = SDKPollIntervalMS
	}

	var buf bytes.Buffer
	if err := surfaceTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("サーフェスHTMLの生成に失敗: %w", err)
	}
	return buf.Bytes(), nil
}
