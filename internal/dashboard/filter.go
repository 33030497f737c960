package dashboard

import (
	"sort"

	"propscope/backend-go/internal/models"
)

type FilterOption struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

type FilterOptions struct {
	Types []FilterOption `json:"types"`
	Games []FilterOption `json:"games"`
}

// FilterState holds the applied prop-type and game selections. It starts with every value seen
// in the catalog selected and only changes through Apply, ApplySelection and Reset.
type FilterState struct {
	allTypes []string
	allGames []FilterOption // Value is the normalized key, Label the first display string seen
	types    map[string]struct{}
	games    map[string]struct{}
}

func NewFilterState(c *Catalog) *FilterState {
	seenTypes := map[string]struct{}{}
	seenGames := map[string]string{}
	c.All(func(_ string, _ int, p models.Prop) bool {
		seenTypes[p.StatName] = struct{}{}
		key := GameKey(p.GameInfo)
		if _, ok := seenGames[key]; !ok {
			seenGames[key] = GameDisplay(p.GameInfo)
		}
		return true
	})

	f := &FilterState{}
	for t := range seenTypes {
		f.allTypes = append(f.allTypes, t)
	}
	sort.Strings(f.allTypes)
	for key, display := range seenGames {
		f.allGames = append(f.allGames, FilterOption{Value: key, Label: display})
	}
	sort.Slice(f.allGames, func(i, j int) bool { return f.allGames[i].Value < f.allGames[j].Value })
	f.Reset()
	return f
}

// Reset selects every type and game again.
func (f *FilterState) Reset() {
	f.types = make(map[string]struct{}, len(f.allTypes))
	for _, t := range f.allTypes {
		f.types[t] = struct{}{}
	}
	f.games = make(map[string]struct{}, len(f.allGames))
	for _, g := range f.allGames {
		f.games[g.Value] = struct{}{}
	}
}

// ApplySelection replaces both sets with exactly the given values. Games may be given as
// normalized keys or as "away @ home" display strings.
func (f *FilterState) ApplySelection(types, games []string) {
	f.types = make(map[string]struct{}, len(types))
	for _, t := range types {
		f.types[t] = struct{}{}
	}
	f.games = make(map[string]struct{}, len(games))
	for _, g := range games {
		if away, home, ok := ParseGameString(g); ok {
			g = NormalizeGame(away, home)
		}
		f.games[g] = struct{}{}
	}
}

// Apply commits a draft.
func (f *FilterState) Apply(d *FilterDraft) {
	f.ApplySelection(d.checked(d.types), d.checked(d.games))
}

// Keep reports whether p passes both the type and the game filter.
func (f *FilterState) Keep(p models.Prop) bool {
	if _, ok := f.types[p.StatName]; !ok {
		return false
	}
	_, ok := f.games[GameKey(p.GameInfo)]
	return ok
}

func (f *FilterState) SelectedTypes() []string { return sortedKeys(f.types) }

func (f *FilterState) SelectedGames() []string { return sortedKeys(f.games) }

// Options lists every known value with its applied state, types and game keys sorted.
func (f *FilterState) Options() FilterOptions {
	out := FilterOptions{
		Types: make([]FilterOption, 0, len(f.allTypes)),
		Games: make([]FilterOption, 0, len(f.allGames)),
	}
	for _, t := range f.allTypes {
		_, ok := f.types[t]
		out.Types = append(out.Types, FilterOption{Value: t, Label: t, Checked: ok})
	}
	for _, g := range f.allGames {
		_, ok := f.games[g.Value]
		g.Checked = ok
		out.Games = append(out.Games, g)
	}
	return out
}

// Draft copies the applied state into editable toggles. Dropping the draft discards edits.
func (f *FilterState) Draft() *FilterDraft {
	d := &FilterDraft{state: f, types: map[string]bool{}, games: map[string]bool{}}
	for _, t := range f.allTypes {
		_, ok := f.types[t]
		d.types[t] = ok
	}
	for _, g := range f.allGames {
		_, ok := f.games[g.Value]
		d.games[g.Value] = ok
	}
	return d
}

// FilterDraft is the unsaved toggle state of the filter surface.
type FilterDraft struct {
	state *FilterState
	types map[string]bool
	games map[string]bool
}

// SetType changes a known type toggle; unknown values are ignored.
func (d *FilterDraft) SetType(value string, checked bool) {
	if _, ok := d.types[value]; ok {
		d.types[value] = checked
	}
}

func (d *FilterDraft) SetGame(key string, checked bool) {
	if _, ok := d.games[key]; ok {
		d.games[key] = checked
	}
}

// ToggleType flips a type toggle and reports whether the value is known.
func (d *FilterDraft) ToggleType(value string) bool {
	on, ok := d.types[value]
	if ok {
		d.types[value] = !on
	}
	return ok
}

func (d *FilterDraft) ToggleGame(key string) bool {
	on, ok := d.games[key]
	if ok {
		d.games[key] = !on
	}
	return ok
}

// CheckAll is the reset button inside the filter surface.
func (d *FilterDraft) CheckAll() {
	for k := range d.types {
		d.types[k] = true
	}
	for k := range d.games {
		d.games[k] = true
	}
}

// Options lists the draft toggles in the same order as FilterState.Options.
func (d *FilterDraft) Options() FilterOptions {
	out := FilterOptions{
		Types: make([]FilterOption, 0, len(d.state.allTypes)),
		Games: make([]FilterOption, 0, len(d.state.allGames)),
	}
	for _, t := range d.state.allTypes {
		out.Types = append(out.Types, FilterOption{Value: t, Label: t, Checked: d.types[t]})
	}
	for _, g := range d.state.allGames {
		g.Checked = d.games[g.Value]
		out.Games = append(out.Games, g)
	}
	return out
}

func (d *FilterDraft) checked(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, on := range m {
		if on {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Entry is a prop kept by the filter together with its position in the catalog tab.
type Entry struct {
	Index int
	Prop  models.Prop
}

// FilterTab returns the props of tab that pass f, in catalog order.
func FilterTab(c *Catalog, f *FilterState, tab string) []Entry {
	props := c.Tab(tab)
	out := make([]Entry, 0, len(props))
	for i, p := range props {
		if f.Keep(p) {
			out = append(out, Entry{Index: i, Prop: p})
		}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
