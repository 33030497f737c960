package dashboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"propscope/backend-go/internal/logging"
	"propscope/backend-go/internal/models"
)

func prop(player, team, stat, away, home string) models.Prop {
	return models.Prop{
		PlayerName: player,
		TeamName:   team,
		StatName:   stat,
		LineScore:  decimal.RequireFromString("24.5"),
		GameInfo:   models.GameInfo{AwayTeam: away, HomeTeam: home, StartTime: "2025-01-02T19:30:00Z"},
		Last5Rate:  80,
		Last10Rate: 60,
		Last20Rate: 40,
		H2HRate:    50,
		H2HGames:   3,
		SeasonRate: 70,
	}
}

func sampleCatalog() *Catalog {
	return NewCatalog([]string{"standard", "demon", "goblin"}, map[string][]models.Prop{
		"standard": {
			prop("LeBron James", "LAL", "Points", "Lakers", "Celtics"),
			prop("Jayson Tatum", "BOS", "Rebounds", "Celtics", "Lakers"),
			prop("Stephen Curry", "GSW", "3-PT Made", "Warriors", "Nuggets"),
			prop("Jamal Murray", "DEN", "Assists", "Nuggets", "Warriors"),
			prop("James Harden", "LAC", "Points", "Clippers", "Suns"),
		},
		"demon": {
			prop("Kevin Durant", "PHX", "Pts+Rebs", "Suns", "Clippers"),
		},
		"goblin": {},
	})
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 50, G: 215, B: 75, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// countingVisualizer answers every request with the same response and records calls.
type countingVisualizer struct {
	mu    sync.Mutex
	calls []models.VisualizeRequest
	resp  models.VisualizeResponse
	err   error
}

func (c *countingVisualizer) Visualize(_ context.Context, req models.VisualizeRequest) (models.VisualizeResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	return c.resp, c.err
}

func (c *countingVisualizer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func newTestSession(viz Visualizer) *Session {
	return NewSession("test", NewView(sampleCatalog(), "standard"), viz, logging.Discard())
}
