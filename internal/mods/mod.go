// Package mods defines modifier templates and the weighted roller that turns
// them into concrete modifiers on an item.
package mods

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultWeightKey is the weight-table entry used when a template has no
// entry for the roll's context key.
const DefaultWeightKey = "default"

var (
	// ErrEmptyPool is returned when a selection has nothing to choose from:
	// zero candidates, zero total weight, or a tag filter that matched nothing.
	ErrEmptyPool = errors.New("modifier pool is empty")

	// ErrMissingDefaultWeight marks a template without a "default" weight.
	ErrMissingDefaultWeight = errors.New("modifier template has no default weight")

	// ErrInvalidRange marks a template whose numeric range has min > max.
	ErrInvalidRange = errors.New("modifier template has an invalid range")
)

// Range is an inclusive numeric range for one value slot of a template.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Mod is a modifier template. Text is rendered by replacing {0}, {1}, ...
// with the rolled values unless Format is set.
type Mod struct {
	ID      string                    `yaml:"id"`
	Text    string                    `yaml:"text"`
	Format  func(values []int) string `yaml:"-"`
	Tags    []string                  `yaml:"tags"`
	Weights map[string]int            `yaml:"weights"`
	Ranges  []Range                   `yaml:"ranges"`
	Family  string                    `yaml:"family,omitempty"`
}

// FamilyKey returns the key used for mutual exclusion. Templates without a
// family exclude only themselves.
func (m *Mod) FamilyKey() string {
	if m.Family != "" {
		return m.Family
	}
	return m.ID
}

// HasTag reports whether the template carries the given tag.
func (m *Mod) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

// Weight returns the effective weight for contextKey, falling back to the
// default entry.
func (m *Mod) Weight(contextKey string) (int, error) {
	if w, ok := m.Weights[contextKey]; ok {
		return w, nil
	}
	if w, ok := m.Weights[DefaultWeightKey]; ok {
		return w, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrMissingDefaultWeight, m.ID)
}

// Render formats rolled values into the display string.
func (m *Mod) Render(values []int) string {
	if m.Format != nil {
		return m.Format(values)
	}
	pairs := make([]string, 0, len(values)*2)
	for i, v := range values {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", strconv.Itoa(v))
	}
	return strings.NewReplacer(pairs...).Replace(m.Text)
}

// Validate checks the template data the roller depends on.
func (m *Mod) Validate() error {
	if m.ID == "" {
		return errors.New("modifier template has no id")
	}
	if _, ok := m.Weights[DefaultWeightKey]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingDefaultWeight, m.ID)
	}
	for key, w := range m.Weights {
		if w < 0 {
			return fmt.Errorf("modifier template %s has negative weight for %q", m.ID, key)
		}
	}
	for i, r := range m.Ranges {
		if r.Min > r.Max {
			return fmt.Errorf("%w: %s slot %d (%d > %d)", ErrInvalidRange, m.ID, i, r.Min, r.Max)
		}
	}
	if m.Text == "" && m.Format == nil {
		return fmt.Errorf("modifier template %s has no text", m.ID)
	}
	return nil
}

// Rolled is a concrete modifier on an item. It keeps the producing template
// and the drawn values next to the rendered text so re-rolls and family
// checks never have to parse Text.
type Rolled struct {
	TemplateID string `json:"templateId"`
	Family     string `json:"family"`
	Values     []int  `json:"values"`
	Text       string `json:"text"`
}

// String returns the rendered text.
func (r Rolled) String() string {
	return r.Text
}

// Clone returns a copy that shares no memory with r.
func (r Rolled) Clone() Rolled {
	if r.Values != nil {
		r.Values = slices.Clone(r.Values)
	}
	return r
}

// Fixed builds a modifier that did not come from a pool roll, such as an
// essence's guaranteed line.
func Fixed(templateID, family, text string, values ...int) Rolled {
	return Rolled{TemplateID: templateID, Family: family, Values: values, Text: text}
}

// Families is the set of family keys already present on an item.
type Families map[string]bool

// FamiliesOf collects the family keys of the given modifiers.
func FamiliesOf(rolled []Rolled) Families {
	f := make(Families, len(rolled))
	for _, r := range rolled {
		if r.Family != "" {
			f[r.Family] = true
		}
	}
	return f
}

// Texts returns the rendered text of each modifier in order.
func Texts(rolled []Rolled) []string {
	out := make([]string, len(rolled))
	for i, r := range rolled {
		out[i] = r.Text
	}
	return out
}
