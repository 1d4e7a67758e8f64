// Package templates resolves channel-specific template identifiers from the
// template-content configuration dataset. The dataset itself is owned by the
// template content team and supplied as JSON; this package only performs the
// lookup.
package templates

import (
	"encoding/json"
	"os"

	"appealnotify/internal/types"
)

// entry is one dataset row. Empty match fields act as wildcards; Resolve
// picks the most specific matching row.
type entry struct {
	Event             string         `json:"event"`
	Role              string         `json:"role,omitempty"`
	Benefit           string         `json:"benefit,omitempty"`
	HearingMode       string         `json:"hearing_mode,omitempty"`
	Welsh             *bool          `json:"welsh,omitempty"`
	CreatedInGapsFrom string         `json:"created_in_gaps_from,omitempty"`
	Template          types.Template `json:"template"`
}

// Registry is an in-memory view of the dataset, indexed by event.
type Registry struct {
	byEvent map[string][]entry
}

var _ types.TemplateRegistry = (*Registry)(nil)

// Load parses a JSON dataset (an array of entries) into a Registry.
func Load(raw []byte) (*Registry, error) {
	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalConfig,
			"failed to parse template dataset", err)
	}

	byEvent := make(map[string][]entry)
	for _, e := range entries {
		if e.Event == "" {
			return nil, types.NewAppError(types.ErrCodeInternalConfig,
				"template dataset entry missing event", nil)
		}
		byEvent[e.Event] = append(byEvent[e.Event], e)
	}
	return &Registry{byEvent: byEvent}, nil
}

// LoadFile reads and parses a dataset file.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalConfig,
			"failed to read template dataset", err)
	}
	return Load(raw)
}

// Resolve returns the template for the most specific dataset row matching
// the query. No matching row is a configuration hole, reported as
// ErrCodeNotFoundTemplate.
func (r *Registry) Resolve(q types.TemplateQuery) (types.Template, error) {
	best := -1
	var found types.Template

	for _, e := range r.byEvent[q.Event] {
		score, ok := e.match(q)
		if ok && score > best {
			best = score
			found = e.Template
		}
	}

	if best < 0 {
		return types.Template{}, types.NewAppError(types.ErrCodeNotFoundTemplate,
			"no template configured for event", nil).
			WithDetail("event", q.Event).
			WithDetail("role", string(q.Role))
	}
	return found, nil
}

// match reports whether the entry applies to the query and how many
// constrained fields it matched on. More constrained rows win over
// wildcards.
func (e entry) match(q types.TemplateQuery) (int, bool) {
	score := 0
	if e.Role != "" {
		if e.Role != string(q.Role) {
			return 0, false
		}
		score++
	}
	if e.Benefit != "" {
		if e.Benefit != q.Benefit {
			return 0, false
		}
		score++
	}
	if e.HearingMode != "" {
		if e.HearingMode != string(q.HearingMode) {
			return 0, false
		}
		score++
	}
	if e.Welsh != nil {
		if *e.Welsh != q.Welsh {
			return 0, false
		}
		score++
	}
	if e.CreatedInGapsFrom != "" {
		if e.CreatedInGapsFrom != q.CreatedInGapsFrom {
			return 0, false
		}
		score++
	}
	return score, true
}
