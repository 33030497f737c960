package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"propscope/backend-go/internal/models"
)

const (
	RateHigh   = "high"
	RateMedium = "medium"
	RateLow    = "low"
)

// seasonLabel is the chip caption for the full-season timeframe.
const seasonLabel = "24/25"

var chipLabels = map[models.Timeframe]string{
	models.TimeframeLast5:  "L5",
	models.TimeframeLast10: "L10",
	models.TimeframeLast20: "L20",
	models.TimeframeH2H:    "H2H",
	models.TimeframeSeason: seasonLabel,
}

var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC1123,
}

type RateChip struct {
	Timeframe models.Timeframe `json:"timeframe"`
	Label     string           `json:"label"`
	Text      string           `json:"text"`
	Class     string           `json:"class"`
}

// Card is the view-model of one prop. Visible is owned by the search filter.
type Card struct {
	ID       string     `json:"id"`
	Game     string     `json:"game"`
	GameKey  string     `json:"game_key"`
	Player   string     `json:"player"`
	Team     string     `json:"team"`
	PropType string     `json:"prop_type"`
	Line     string     `json:"line"`
	Rates    []RateChip `json:"rates"`
	Visible  bool       `json:"visible"`
}

// RateClass buckets a hit rate. Boundaries belong to the higher bucket.
func RateClass(rate float64) string {
	switch {
	case rate >= 70:
		return RateHigh
	case rate >= 50:
		return RateMedium
	default:
		return RateLow
	}
}

// RenderCard projects a prop into its card. It does not touch p.
func RenderCard(id string, p models.Prop) Card {
	c := Card{
		ID:       id,
		Game:     formatGameInfo(p.GameInfo),
		GameKey:  GameKey(p.GameInfo),
		Player:   p.PlayerName,
		Team:     p.TeamName,
		PropType: p.StatName + " (Over)",
		Line:     "O " + p.LineScore.String(),
		Rates:    make([]RateChip, 0, len(models.Timeframes)),
		Visible:  true,
	}
	for _, tf := range models.Timeframes {
		rate := p.Rate(tf)
		if math.IsNaN(rate) {
			rate = 0
		}
		text := fmt.Sprintf("%d%%", int(math.Round(rate)))
		if tf == models.TimeframeH2H && p.H2HGames > 0 {
			text += fmt.Sprintf(" (%d)", p.H2HGames)
		}
		c.Rates = append(c.Rates, RateChip{
			Timeframe: tf,
			Label:     chipLabels[tf],
			Text:      text,
			Class:     RateClass(rate),
		})
	}
	return c
}

func formatGameInfo(g models.GameInfo) string {
	matchup := GameDisplay(g)
	raw := strings.TrimSpace(g.StartTime)
	if raw == "" {
		return matchup
	}
	for _, layout := range startTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return fmt.Sprintf("%s • %s at %s", matchup, t.Format("Jan 2"), t.Format("3:04 PM"))
		}
	}
	return matchup + " • " + raw
}

// AnalysisCard is an upload analysis entry: the prop card, its aggregate hit rate and a panel
// preloaded with the precomputed graph.
type AnalysisCard struct {
	Card
	HitRate    float64   `json:"hit_rate"`
	HitClass   string    `json:"hit_class"`
	Hits       int       `json:"hits"`
	TotalGames int       `json:"total_games"`
	Panel      PanelView `json:"panel"`
}

func RenderAnalysis(id string, r models.AnalysisResult) AnalysisCard {
	return AnalysisCard{
		Card:       RenderCard(id, r.Prop),
		HitRate:    r.HitRate,
		HitClass:   RateClass(r.HitRate),
		Hits:       r.Hits,
		TotalGames: r.TotalGames,
		Panel:      PanelFromGraph(id, r.Prop, r.Graph).View(),
	}
}
