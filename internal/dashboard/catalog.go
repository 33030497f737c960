package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"propscope/backend-go/internal/models"
)

// CatalogSource fetches the raw get_props payload.
type CatalogSource interface {
	GetProps(ctx context.Context) ([]byte, error)
}

type catalogTab struct {
	name  string
	props []models.Prop
}

// Catalog is the prop catalog for one session, grouped by odds type in upstream order.
// It is never mutated after decode.
type Catalog struct {
	tabs []catalogTab
}

// LoadCatalog fetches and decodes the catalog. Every failure is reported as ErrDataUnavailable.
func LoadCatalog(ctx context.Context, src CatalogSource) (*Catalog, error) {
	raw, err := src.GetProps(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrDataUnavailable, ErrCatalogFetch, err)
	}
	return DecodeCatalog(raw)
}

// DecodeCatalog parses {"props_by_type": {...}} keeping the key order of the payload.
func DecodeCatalog(raw []byte) (*Catalog, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: malformed payload", ErrDataUnavailable)
	}
	byType := gjson.GetBytes(raw, "props_by_type")
	if !byType.Exists() || !byType.IsObject() {
		return nil, fmt.Errorf("%w: props_by_type missing", ErrDataUnavailable)
	}

	c := &Catalog{}
	var decodeErr error
	byType.ForEach(func(key, value gjson.Result) bool {
		var props []models.Prop
		if value.Type != gjson.Null {
			if err := json.Unmarshal([]byte(value.Raw), &props); err != nil {
				decodeErr = fmt.Errorf("%w: tab %s: %v", ErrDataUnavailable, key.String(), err)
				return false
			}
		}
		c.tabs = append(c.tabs, catalogTab{name: key.String(), props: props})
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return c, nil
}

// NewCatalog builds a catalog from already decoded tabs, in the given order.
func NewCatalog(order []string, byType map[string][]models.Prop) *Catalog {
	c := &Catalog{}
	for _, name := range order {
		c.tabs = append(c.tabs, catalogTab{name: name, props: byType[name]})
	}
	return c
}

func (c *Catalog) Tabs() []string {
	out := make([]string, 0, len(c.tabs))
	for _, t := range c.tabs {
		out = append(out, t.name)
	}
	return out
}

func (c *Catalog) HasTab(name string) bool {
	for _, t := range c.tabs {
		if t.name == name {
			return true
		}
	}
	return false
}

// Tab returns the props of one odds type; unknown tabs are empty.
func (c *Catalog) Tab(name string) []models.Prop {
	for _, t := range c.tabs {
		if t.name == name {
			return t.props
		}
	}
	return nil
}

// All calls fn for every prop across tabs in catalog order until fn returns false.
func (c *Catalog) All(fn func(tab string, index int, p models.Prop) bool) {
	for _, t := range c.tabs {
		for i, p := range t.props {
			if !fn(t.name, i, p) {
				return
			}
		}
	}
}

func (c *Catalog) Len() int {
	n := 0
	for _, t := range c.tabs {
		n += len(t.props)
	}
	return n
}

// Lookup resolves a card id back to its prop.
func (c *Catalog) Lookup(id string) (models.Prop, bool) {
	tab, idx, ok := ParseCardID(id)
	if !ok {
		return models.Prop{}, false
	}
	props := c.Tab(tab)
	if idx < 0 || idx >= len(props) {
		return models.Prop{}, false
	}
	return props[idx], true
}

// CardID identifies the prop at position index of tab for the life of a session.
func CardID(tab string, index int) string {
	return tab + "-" + strconv.Itoa(index)
}

// ParseCardID accepts only the exact spelling CardID produces.
func ParseCardID(id string) (tab string, index int, ok bool) {
	i := strings.LastIndexByte(id, '-')
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 || CardID(id[:i], n) != id {
		return "", 0, false
	}
	return id[:i], n, true
}
