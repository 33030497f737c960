package dashboard

import (
	"fmt"

	"propscope/backend-go/internal/models"
)

// View is the page state of one dashboard session: catalog, filters, search term, active tab
// and visualization panels. It is not safe for concurrent use; Session serializes access.
type View struct {
	catalog    *Catalog
	filter     *FilterState
	panels     *PanelRegistry
	draft      *FilterDraft
	activeTab  string
	searchTerm string
}

func NewView(c *Catalog, defaultTab string) *View {
	v := &View{
		catalog: c,
		filter:  NewFilterState(c),
		panels:  NewPanelRegistry(),
	}
	v.activeTab = defaultTab
	if tabs := c.Tabs(); defaultTab == "" && len(tabs) > 0 {
		v.activeTab = tabs[0]
	}
	return v
}

func (v *View) ActiveTab() string { return v.activeTab }

func (v *View) SearchTerm() string { return v.searchTerm }

func (v *View) Filter() *FilterState { return v.filter }

// SwitchTab makes tab active and rebuilds the card list.
func (v *View) SwitchTab(tab string) error {
	if !v.catalog.HasTab(tab) {
		return fmt.Errorf("unknown tab %q", tab)
	}
	v.activeTab = tab
	v.rerender()
	return nil
}

// EditFilters opens the filter surface: a fresh draft of the applied filters replaces any
// draft in progress.
func (v *View) EditFilters() *FilterDraft {
	v.draft = v.filter.Draft()
	return v.draft
}

// Draft returns the open filter draft, if any.
func (v *View) Draft() (*FilterDraft, bool) { return v.draft, v.draft != nil }

// ApplyDraft commits the open draft and closes the filter surface.
func (v *View) ApplyDraft() bool {
	if v.draft == nil {
		return false
	}
	v.filter.Apply(v.draft)
	v.draft = nil
	v.rerender()
	return true
}

func (v *View) DiscardDraft() { v.draft = nil }

func (v *View) ApplySelection(types, games []string) {
	v.filter.ApplySelection(types, games)
	v.draft = nil
	v.rerender()
}

func (v *View) ResetFilters() {
	v.filter.Reset()
	v.draft = nil
	v.rerender()
}

// Search only changes visibility, so open panels survive it.
func (v *View) Search(term string) {
	v.searchTerm = term
}

// rerender mirrors rebuilding the card list: existing panels and their in-flight requests go away.
func (v *View) rerender() {
	v.panels.CollapseAll()
}

// Cards renders the active tab after filters, with the last search term applied.
func (v *View) Cards() []Card {
	entries := FilterTab(v.catalog, v.filter, v.activeTab)
	cards := make([]Card, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, RenderCard(CardID(v.activeTab, e.Index), e.Prop))
	}
	ApplySearch(cards, v.searchTerm)
	return cards
}

func (v *View) prop(id string) (models.Prop, error) {
	p, ok := v.catalog.Lookup(id)
	if !ok {
		return models.Prop{}, fmt.Errorf("%w: %s", ErrUnknownCard, id)
	}
	return p, nil
}

func (v *View) OpenPanel(id string, tf models.Timeframe) (*Ticket, error) {
	p, err := v.prop(id)
	if err != nil {
		return nil, err
	}
	return v.panels.Open(id, p, tf), nil
}

func (v *View) TogglePanel(id string) (*Ticket, error) {
	p, err := v.prop(id)
	if err != nil {
		return nil, err
	}
	return v.panels.Toggle(id, p), nil
}

func (v *View) SelectTimeframe(id string, tf models.Timeframe) (*Ticket, error) {
	p, err := v.prop(id)
	if err != nil {
		return nil, err
	}
	return v.panels.SelectTimeframe(id, p, tf), nil
}

func (v *View) ClosePanel(id string) error {
	if _, err := v.prop(id); err != nil {
		return err
	}
	v.panels.Close(id)
	return nil
}

func (v *View) Deliver(o Outcome) bool { return v.panels.Deliver(o) }

func (v *View) Panel(id string) PanelView { return v.panels.View(id) }

// Snapshot is everything the page needs to render.
type Snapshot struct {
	Tabs       []string       `json:"tabs"`
	ActiveTab  string         `json:"active_tab"`
	SearchTerm string         `json:"search_term"`
	Cards      []Card         `json:"cards"`
	Filters    FilterOptions  `json:"filters"`
	Draft      *FilterOptions `json:"filter_draft,omitempty"`
	OpenPanel  *PanelView     `json:"open_panel,omitempty"`
}

func (v *View) Snapshot() Snapshot {
	s := Snapshot{
		Tabs:       v.catalog.Tabs(),
		ActiveTab:  v.activeTab,
		SearchTerm: v.searchTerm,
		Cards:      v.Cards(),
		Filters:    v.filter.Options(),
	}
	if v.draft != nil {
		opts := v.draft.Options()
		s.Draft = &opts
	}
	if id, ok := v.panels.OpenID(); ok {
		pv := v.panels.View(id)
		s.OpenPanel = &pv
	}
	return s
}
