package dashboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"propscope/backend-go/internal/models"
)

type PanelState string

const (
	PanelCollapsed PanelState = "collapsed"
	PanelLoading   PanelState = "loading"
	PanelLoaded    PanelState = "loaded"
	PanelFailed    PanelState = "error"
)

const LoadingPlaceholder = "Loading visualization..."

// Visualizer renders a chart for one prop and timeframe.
type Visualizer interface {
	Visualize(ctx context.Context, req models.VisualizeRequest) (models.VisualizeResponse, error)
}

// Ticket is a visualization fetch the caller must perform. Generation identifies the request
// within its panel; only the outcome of the latest ticket is applied.
type Ticket struct {
	PanelID    string
	Generation uint64
	Request    models.VisualizeRequest
}

// Outcome is the result of performing a Ticket.
type Outcome struct {
	PanelID    string
	Generation uint64
	Response   models.VisualizeResponse
	Err        error
}

// Fetch performs t against v. It never touches panel state; deliver the outcome to the registry.
func Fetch(ctx context.Context, v Visualizer, t Ticket) Outcome {
	resp, err := v.Visualize(ctx, t.Request)
	return Outcome{PanelID: t.PanelID, Generation: t.Generation, Response: resp, Err: err}
}

type Panel struct {
	id         string
	prop       models.Prop
	state      PanelState
	timeframe  models.Timeframe
	graph      string
	width      int
	height     int
	err        *PanelError
	generation uint64
}

// PanelView is the renderable state of a panel.
type PanelView struct {
	ID          string           `json:"id"`
	State       PanelState       `json:"state"`
	Timeframe   models.Timeframe `json:"timeframe,omitempty"`
	Placeholder string           `json:"placeholder,omitempty"`
	Graph       string           `json:"graph,omitempty"`
	Width       int              `json:"width,omitempty"`
	Height      int              `json:"height,omitempty"`
	Error       *PanelError      `json:"error,omitempty"`
}

func (p *Panel) View() PanelView {
	v := PanelView{ID: p.id, State: p.state}
	if p.state == PanelCollapsed {
		return v
	}
	v.Timeframe = p.timeframe
	switch p.state {
	case PanelLoading:
		v.Placeholder = LoadingPlaceholder
	case PanelLoaded:
		v.Graph = p.graph
		v.Width, v.Height = p.width, p.height
	case PanelFailed:
		v.Error = p.err
	}
	return v
}

func (p *Panel) collapse() {
	p.state = PanelCollapsed
	p.graph, p.width, p.height, p.err = "", 0, 0, nil
	p.generation++
}

// load applies a successful payload: an error field wins, then the graph must decode as PNG.
func (p *Panel) load(resp models.VisualizeResponse) {
	p.graph, p.width, p.height, p.err = "", 0, 0, nil
	if resp.Error != "" {
		p.fail(domainError(resp.Error))
		return
	}
	if resp.Graph == "" {
		p.fail(decodeError("No visualization data available"))
		return
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Graph)
	if err != nil {
		p.fail(decodeError("Failed to load graph image"))
		return
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		p.fail(decodeError("Failed to load graph image"))
		return
	}
	p.state = PanelLoaded
	p.graph = resp.Graph
	p.width, p.height = cfg.Width, cfg.Height
}

func (p *Panel) fail(e *PanelError) {
	p.state = PanelFailed
	p.err = e
}

// PanelFromGraph builds a loaded panel from a precomputed graph, through the same decode path
// as a fetched one.
func PanelFromGraph(id string, prop models.Prop, graph string) *Panel {
	p := &Panel{id: id, prop: prop, timeframe: models.TimeframeSeason}
	p.load(models.VisualizeResponse{Graph: graph})
	return p
}

// PanelRegistry owns every visualization panel of a view and keeps at most one of them
// non-collapsed.
type PanelRegistry struct {
	panels map[string]*Panel
	open   string
}

func NewPanelRegistry() *PanelRegistry {
	return &PanelRegistry{panels: make(map[string]*Panel)}
}

func (r *PanelRegistry) panel(id string, prop models.Prop) *Panel {
	p, ok := r.panels[id]
	if !ok {
		p = &Panel{id: id, state: PanelCollapsed}
		r.panels[id] = p
	}
	p.prop = prop
	return p
}

// Open collapses any other open panel and starts loading tf. An empty tf means last_5.
func (r *PanelRegistry) Open(id string, prop models.Prop, tf models.Timeframe) *Ticket {
	if tf == "" {
		tf = models.TimeframeLast5
	}
	if r.open != "" && r.open != id {
		if other, ok := r.panels[r.open]; ok {
			other.collapse()
		}
	}
	r.open = id
	return r.request(r.panel(id, prop), tf)
}

// Toggle is a click on the card body: an open panel closes, a collapsed one opens on last_5.
func (r *PanelRegistry) Toggle(id string, prop models.Prop) *Ticket {
	if p, ok := r.panels[id]; ok && p.state != PanelCollapsed {
		r.Close(id)
		return nil
	}
	return r.Open(id, prop, models.TimeframeLast5)
}

// SelectTimeframe switches the panel to tf, opening it first when collapsed. A nil ticket means
// no request is needed.
func (r *PanelRegistry) SelectTimeframe(id string, prop models.Prop, tf models.Timeframe) *Ticket {
	p, ok := r.panels[id]
	if !ok || p.state == PanelCollapsed {
		return r.Open(id, prop, tf)
	}
	p.prop = prop
	return r.request(p, tf)
}

func (r *PanelRegistry) request(p *Panel, tf models.Timeframe) *Ticket {
	p.generation++
	p.timeframe = tf
	p.graph, p.width, p.height, p.err = "", 0, 0, nil
	if tf == models.TimeframeH2H && p.prop.H2HGames <= 0 {
		p.fail(noDataError(p.prop.GameInfo.HomeTeam))
		return nil
	}
	p.state = PanelLoading
	return &Ticket{
		PanelID:    p.id,
		Generation: p.generation,
		Request:    models.NewVisualizeRequest(p.prop, tf),
	}
}

// Deliver applies an outcome if it belongs to the latest request of a still-loading panel.
// It reports whether the outcome was applied.
func (r *PanelRegistry) Deliver(o Outcome) bool {
	p, ok := r.panels[o.PanelID]
	if !ok || p.generation != o.Generation || p.state != PanelLoading {
		return false
	}
	if o.Err != nil {
		p.fail(requestError(transportDetail(o.Err)))
		return true
	}
	p.load(o.Response)
	return true
}

// Close collapses the panel and drops its content. Late outcomes for it are discarded.
func (r *PanelRegistry) Close(id string) {
	if p, ok := r.panels[id]; ok {
		p.collapse()
	}
	if r.open == id {
		r.open = ""
	}
}

// CollapseAll closes every panel, used when the card list is rebuilt.
func (r *PanelRegistry) CollapseAll() {
	for _, p := range r.panels {
		if p.state != PanelCollapsed {
			p.collapse()
		} else {
			p.generation++
		}
	}
	r.open = ""
}

func (r *PanelRegistry) View(id string) PanelView {
	if p, ok := r.panels[id]; ok {
		return p.View()
	}
	return PanelView{ID: id, State: PanelCollapsed}
}

// OpenID returns the non-collapsed panel, if any.
func (r *PanelRegistry) OpenID() (string, bool) {
	if r.open == "" {
		return "", false
	}
	if p, ok := r.panels[r.open]; !ok || p.state == PanelCollapsed {
		return "", false
	}
	return r.open, true
}

type statusCoder interface {
	StatusCode() int
}

func transportDetail(err error) string {
	var sc statusCoder
	if errors.As(err, &sc) {
		return fmt.Sprintf("HTTP error! status: %d", sc.StatusCode())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}

var labelTimeframes = map[string]models.Timeframe{
	"l5":     models.TimeframeLast5,
	"l10":    models.TimeframeLast10,
	"l20":    models.TimeframeLast20,
	"h2h":    models.TimeframeH2H,
	"season": models.TimeframeSeason,
	"24/25":  models.TimeframeSeason,
}

// ParseTimeframe accepts wire names (last_5) and chip labels (L5, 24/25).
func ParseTimeframe(s string) (models.Timeframe, bool) {
	s = strings.TrimSpace(s)
	if tf, ok := models.ParseTimeframe(strings.ToLower(s)); ok {
		return tf, true
	}
	tf, ok := labelTimeframes[strings.ToLower(s)]
	return tf, ok
}
