package recipe

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/pkg/common"

	"github.com/stretchr/testify/require"
)

// stubCompleter 以函式取代上游模型
type stubCompleter struct {
	fn    func(ctx context.Context, req *provider.Request) (*provider.Response, error)
	noKey bool
	calls int32
}

func (s *stubCompleter) ProcessRequest(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.fn(ctx, req)
}

func (s *stubCompleter) CheckCredentials() error {
	if s.noKey {
		return common.ErrMissingCredentials
	}
	return nil
}

func (s *stubCompleter) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

func reply(content string) func(context.Context, *provider.Request) (*provider.Response, error) {
	return func(context.Context, *provider.Request) (*provider.Response, error) {
		return &provider.Response{Content: content}, nil
	}
}

// testImage 產生指定尺寸的 PNG，尺寸不同則編碼結果不同
func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(40 * x), G: uint8(40 * y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// imageURL 取出請求中的圖片 data URL
func imageURL(req *provider.Request) string {
	for _, msg := range req.Messages {
		for _, part := range msg.Parts {
			if part.ImageURL != nil {
				return part.ImageURL.URL
			}
		}
	}
	return ""
}
