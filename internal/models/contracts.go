package models

import "github.com/shopspring/decimal"

type Timeframe string

const (
	TimeframeLast5  Timeframe = "last_5"
	TimeframeLast10 Timeframe = "last_10"
	TimeframeLast20 Timeframe = "last_20"
	TimeframeH2H    Timeframe = "h2h"
	TimeframeSeason Timeframe = "season"
)

// Timeframes lists every timeframe in card order.
var Timeframes = []Timeframe{TimeframeLast5, TimeframeLast10, TimeframeLast20, TimeframeH2H, TimeframeSeason}

func ParseTimeframe(s string) (Timeframe, bool) {
	for _, tf := range Timeframes {
		if string(tf) == s {
			return tf, true
		}
	}
	return "", false
}

type GameInfo struct {
	AwayTeam  string `json:"away_team"`
	HomeTeam  string `json:"home_team"`
	StartTime string `json:"start_time"`
}

type Prop struct {
	PlayerName string          `json:"player_name"`
	TeamName   string          `json:"team_name"`
	StatName   string          `json:"stat_name"`
	LineScore  decimal.Decimal `json:"line_score"`
	OddsType   string          `json:"odds_type,omitempty"`
	GameInfo   GameInfo        `json:"game_info"`
	Last5Rate  float64         `json:"last_5_rate"`
	Last10Rate float64         `json:"last_10_rate"`
	Last20Rate float64         `json:"last_20_rate"`
	H2HRate    float64         `json:"h2h_rate"`
	H2HGames   int             `json:"h2h_games"`
	SeasonRate float64         `json:"season_rate"`
}

// Rate returns the hit rate for tf; unknown timeframes read as 0.
func (p Prop) Rate(tf Timeframe) float64 {
	switch tf {
	case TimeframeLast5:
		return p.Last5Rate
	case TimeframeLast10:
		return p.Last10Rate
	case TimeframeLast20:
		return p.Last20Rate
	case TimeframeH2H:
		return p.H2HRate
	case TimeframeSeason:
		return p.SeasonRate
	}
	return 0
}

type PropsResponse struct {
	PropsByType map[string][]Prop `json:"props_by_type"`
	Error       string            `json:"error,omitempty"`
}

// VisualizeRequest is the body of POST /visualize. line_score travels as a JSON number.
type VisualizeRequest struct {
	PlayerName string    `json:"player_name"`
	TeamName   string    `json:"team_name"`
	StatName   string    `json:"stat_name"`
	LineScore  float64   `json:"line_score"`
	Timeframe  Timeframe `json:"timeframe"`
}

func NewVisualizeRequest(p Prop, tf Timeframe) VisualizeRequest {
	return VisualizeRequest{
		PlayerName: p.PlayerName,
		TeamName:   p.TeamName,
		StatName:   p.StatName,
		LineScore:  p.LineScore.InexactFloat64(),
		Timeframe:  tf,
	}
}

type VisualizeResponse struct {
	Graph string `json:"graph,omitempty"`
	Error string `json:"error,omitempty"`
}

type AnalysisResult struct {
	Prop
	Graph      string  `json:"graph"`
	HitRate    float64 `json:"hit_rate"`
	Hits       int     `json:"hits"`
	TotalGames int     `json:"total_games"`
}

type UploadResponse struct {
	Message  string           `json:"message,omitempty"`
	Warning  string           `json:"warning,omitempty"`
	Redirect string           `json:"redirect,omitempty"`
	Analysis []AnalysisResult `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type DepStatus struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type HealthResponse struct {
	Ok          bool                 `json:"ok"`
	TsISO       string               `json:"tsISO"`
	Service     string               `json:"service"`
	Version     string               `json:"version"`
	Deps        []string             `json:"deps"`
	DepsStatus  map[string]DepStatus `json:"deps_status"`
	DataMissing []string             `json:"data_missing"`
	Sessions    int                  `json:"sessions"`
}
