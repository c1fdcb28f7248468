package mods

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pool is an ordered, validated set of templates. Order matters: weighted
// selection walks templates in pool order.
type Pool struct {
	mods []*Mod
	byID map[string]*Mod
}

// NewPool validates the templates and builds a pool in the given order.
func NewPool(templates ...*Mod) (*Pool, error) {
	p := &Pool{
		mods: make([]*Mod, 0, len(templates)),
		byID: make(map[string]*Mod, len(templates)),
	}
	for _, m := range templates {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := p.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate modifier template id %q", m.ID)
		}
		p.mods = append(p.mods, m)
		p.byID[m.ID] = m
	}
	return p, nil
}

// Get returns the template with the given id.
func (p *Pool) Get(id string) (*Mod, bool) {
	m, ok := p.byID[id]
	return m, ok
}

// Mods returns the templates in pool order.
func (p *Pool) Mods() []*Mod {
	out := make([]*Mod, len(p.mods))
	copy(out, p.mods)
	return out
}

// Len returns the number of templates.
func (p *Pool) Len() int {
	return len(p.mods)
}

// WithTag returns the sub-pool of templates carrying tag, in pool order.
// Provenance lookups on the sub-pool only see its own templates.
func (p *Pool) WithTag(tag string) *Pool {
	sub := &Pool{byID: make(map[string]*Mod)}
	for _, m := range p.mods {
		if m.HasTag(tag) {
			sub.mods = append(sub.mods, m)
			sub.byID[m.ID] = m
		}
	}
	return sub
}

// eligible returns the templates whose family is not already taken.
func (p *Pool) eligible(taken Families) []*Mod {
	out := make([]*Mod, 0, len(p.mods))
	for _, m := range p.mods {
		if !taken[m.FamilyKey()] {
			out = append(out, m)
		}
	}
	return out
}

// poolFile represents the structure of the mods YAML file
type poolFile struct {
	Mods []*Mod `yaml:"mods"`
}

// LoadPoolFromYAML loads modifier templates from a YAML file
func LoadPoolFromYAML(filename string) (*Pool, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read mods file: %w", err)
	}
	return ParsePool(data)
}

// ParsePool parses modifier templates from YAML bytes.
func ParsePool(data []byte) (*Pool, error) {
	var file poolFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse mods YAML: %w", err)
	}

	pool, err := NewPool(file.Mods...)
	if err != nil {
		return nil, fmt.Errorf("invalid mod pool: %w", err)
	}
	return pool, nil
}
