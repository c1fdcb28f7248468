package bench

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lawnchairsociety/crucible/internal/items"
	"gopkg.in/yaml.v3"
)

// UndoStep is the script step that undoes the previous application.
const UndoStep = "undo"

// Script is a fixed crafting sequence run against a fresh item.
type Script struct {
	Seed   int64    `yaml:"seed"`
	Base   string   `yaml:"base"`
	Rarity string   `yaml:"rarity"`
	Steps  []string `yaml:"steps"`

	// StopOnError ends the run at the first refused or failed step.
	StopOnError bool `yaml:"stop_on_error"`
}

// StepResult is the outcome of one script step. Item is the bench item
// after the step, whether or not it succeeded.
type StepResult struct {
	Step        string
	Transaction string
	Item        items.Item
	Err         error
}

// LoadScript reads a script from a YAML file.
func LoadScript(filename string) (*Script, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return ParseScript(data)
}

// ParseScript parses a script from YAML bytes.
func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to parse script YAML: %w", err)
	}
	if strings.TrimSpace(script.Base) == "" {
		return nil, errors.New("script has no base")
	}
	if len(script.Steps) == 0 {
		return nil, errors.New("script has no steps")
	}
	return &script, nil
}

// Run places a fresh item from the script's base and applies every step.
// Refused steps are reported in their result and skipped unless StopOnError
// is set, in which case Run returns the results so far and the step's error.
func (s *Session) Run(script *Script) ([]StepResult, error) {
	if _, err := s.NewItem(script.Base, script.Rarity); err != nil {
		return nil, err
	}

	results := make([]StepResult, 0, len(script.Steps))
	for i, step := range script.Steps {
		res := StepResult{Step: step}
		if strings.EqualFold(strings.TrimSpace(step), UndoStep) {
			_, res.Transaction, res.Err = s.Undo()
		} else {
			_, tx, err := s.Apply(step)
			if err == nil {
				res.Transaction = tx.ID()
			}
			res.Err = err
		}
		res.Item, _ = s.Item()
		results = append(results, res)

		if res.Err != nil && script.StopOnError {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step, res.Err)
		}
	}
	return results, nil
}
