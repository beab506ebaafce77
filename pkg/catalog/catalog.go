package catalog

import (
	"fmt"

	"github.com/ovnanova/aeon/pkg/identity"
)

// IdentifierLen is the exact length of a label identifier
const IdentifierLen = 4

// Label maps a trigger post to the label it applies
type Label struct {
	// Identifier is the 4-character value applied to the subject
	Identifier string `yaml:"identifier"`

	// Category is the exclusivity partition: at most one effective
	// label per category per subject
	Category string `yaml:"category"`

	// TriggerKey is the record key of the post whose like applies the label
	TriggerKey string `yaml:"trigger_key"`
}

// Catalog is the immutable trigger-key to label mapping, validated at load
type Catalog struct {
	labels     []Label
	byTrigger  map[string]Label
	byIdent    map[string]Label
	byCategory map[string][]string
}

// New builds a catalog from entries, validating every entry eagerly.
// A malformed entry is an error: the caller treats it as fatal at startup.
func New(entries []Label) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog: no label entries")
	}

	c := &Catalog{
		labels:     make([]Label, 0, len(entries)),
		byTrigger:  make(map[string]Label, len(entries)),
		byIdent:    make(map[string]Label, len(entries)),
		byCategory: make(map[string][]string, len(entries)),
	}

	for _, entry := range entries {
		if err := validateName(entry.Identifier); err != nil {
			return nil, fmt.Errorf("catalog: label %q: %w", entry.Identifier, err)
		}
		if err := validateName(entry.Category); err != nil {
			return nil, fmt.Errorf("catalog: label %q category: %w", entry.Identifier, err)
		}
		if err := identity.ValidateRecordKey(entry.TriggerKey); err != nil {
			return nil, fmt.Errorf("catalog: label %q: %w", entry.Identifier, err)
		}
		if _, dup := c.byIdent[entry.Identifier]; dup {
			return nil, fmt.Errorf("catalog: duplicate label identifier %q", entry.Identifier)
		}
		if prev, dup := c.byTrigger[entry.TriggerKey]; dup {
			return nil, fmt.Errorf("catalog: trigger key %q mapped to both %q and %q",
				entry.TriggerKey, prev.Identifier, entry.Identifier)
		}

		c.labels = append(c.labels, entry)
		c.byTrigger[entry.TriggerKey] = entry
		c.byIdent[entry.Identifier] = entry
		c.byCategory[entry.Category] = append(c.byCategory[entry.Category], entry.Identifier)
	}

	return c, nil
}

// validateName checks a label identifier or category name: exactly 4
// lowercase letters.
func validateName(s string) error {
	if len(s) != IdentifierLen {
		return fmt.Errorf("name %q must be %d characters, got %d", s, IdentifierLen, len(s))
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return fmt.Errorf("name %q must be lowercase letters only", s)
		}
	}
	return nil
}

// ResolveTrigger returns the label whose designated post has the given
// record key. A miss is not an error: it means the liked post is outside
// the labeler's concern.
func (c *Catalog) ResolveTrigger(rkey string) (Label, bool) {
	l, ok := c.byTrigger[rkey]
	return l, ok
}

// CategoryOf returns the category of a label identifier
func (c *Catalog) CategoryOf(identifier string) (string, bool) {
	l, ok := c.byIdent[identifier]
	if !ok {
		return "", false
	}
	return l.Category, true
}

// InCategory returns every label identifier belonging to a category
func (c *Catalog) InCategory(category string) []string {
	return append([]string(nil), c.byCategory[category]...)
}

// Identifiers returns all label identifiers in catalog order
func (c *Catalog) Identifiers() []string {
	ids := make([]string, len(c.labels))
	for i, l := range c.labels {
		ids[i] = l.Identifier
	}
	return ids
}

// Labels returns a copy of all catalog entries
func (c *Catalog) Labels() []Label {
	return append([]Label(nil), c.labels...)
}

// Default returns the built-in faction table
func Default() *Catalog {
	c, err := New([]Label{
		{Identifier: "fklr", Category: "fklr", TriggerKey: "3l7jy3e7hhp2f"},
		{Identifier: "mnrv", Category: "mnrv", TriggerKey: "3l7jy4kzr6c2d"},
		{Identifier: "vngd", Category: "vngd", TriggerKey: "3l7jy5mwt3k2s"},
		{Identifier: "sntl", Category: "sntl", TriggerKey: "3l7jy6qna5e2m"},
	})
	if err != nil {
		// The built-in table is validated by tests; reaching this is a bug.
		panic(err)
	}
	return c
}
