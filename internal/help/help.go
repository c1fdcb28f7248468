// Package help looks bench help topics up from YAML. The built-in catalog is
// embedded; Load reads a replacement from disk.
package help

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed help.yaml
var builtin []byte

// Topic represents a single help topic with aliases and text.
type Topic struct {
	Aliases []string `yaml:"aliases"`
	Text    string   `yaml:"text"`
}

// Data is the structure of a help YAML file.
type Data struct {
	Topics      map[string]Topic `yaml:"topics"`
	GeneralHelp string           `yaml:"general_help"`
}

// Help provides help text lookup.
type Help struct {
	data        Data
	aliasLookup map[string]string // alias -> topic name
}

var (
	defaultHelp *Help
	defaultErr  error
	defaultOnce sync.Once
)

// Default returns the embedded catalog. It panics if the embedded YAML is
// broken, which is a build defect.
func Default() *Help {
	defaultOnce.Do(func() {
		defaultHelp, defaultErr = Parse(builtin)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultHelp
}

// Load loads help data from a YAML file.
func Load(path string) (*Help, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read help file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML bytes. An alias claimed by two topics is
// an error.
func Parse(raw []byte) (*Help, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse help file: %w", err)
	}

	h := &Help{data: data, aliasLookup: make(map[string]string)}
	for name, topic := range data.Topics {
		for _, alias := range topic.Aliases {
			alias = strings.ToLower(alias)
			if other, ok := h.aliasLookup[alias]; ok && other != name {
				return nil, fmt.Errorf("help alias %q used by topics %q and %q", alias, other, name)
			}
			h.aliasLookup[alias] = name
		}
	}
	return h, nil
}

// Topic returns help text for a topic or alias, or "" if there is none.
func (h *Help) Topic(topic string) string {
	name, ok := h.aliasLookup[strings.ToLower(strings.TrimSpace(topic))]
	if !ok {
		return ""
	}
	return strings.TrimSpace(h.data.Topics[name].Text)
}

// Text returns help for a topic, or the general help if topic is empty.
func (h *Help) Text(topic string) string {
	if strings.TrimSpace(topic) == "" {
		return strings.TrimSpace(h.data.GeneralHelp)
	}
	if text := h.Topic(topic); text != "" {
		return text
	}
	return fmt.Sprintf("No help available for '%s'.\nType 'help' for a list of commands.", topic)
}
