// Package counties loads the static per-state county name dataset.
package counties

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
)

// Dataset maps two-letter state codes to county names. It is read-only after Load.
type Dataset struct {
	states map[string][]string
}

// Load reads a JSON object of the form {"MD": ["Allegany", "Anne Arundel", ...]}.
func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read county dataset: %w", err)
	}

	var byState map[string][]string
	if err = json.Unmarshal(raw, &byState); err != nil {
		return nil, fmt.Errorf("failed to decode county dataset %s: %w", path, err)
	}

	return New(byState), nil
}

// New builds a dataset from an in-memory map. State codes are upper-cased and
// blank county names dropped.
func New(byState map[string][]string) *Dataset {
	states := make(map[string][]string, len(byState))
	for state, names := range byState {
		code := strings.ToUpper(strings.TrimSpace(state))
		for _, name := range names {
			if name = strings.TrimSpace(name); name != "" {
				states[code] = append(states[code], name)
			}
		}
	}

	return &Dataset{states: states}
}

// Counties returns a copy of the county names for a state, in file order.
func (d *Dataset) Counties(state string) ([]string, bool) {
	names, ok := d.states[strings.ToUpper(strings.TrimSpace(state))]
	if !ok || len(names) == 0 {
		return nil, false
	}

	return slices.Clone(names), true
}

// States returns the sorted list of state codes with data.
func (d *Dataset) States() []string {
	codes := make([]string, 0, len(d.states))
	for code := range d.states {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	return codes
}
