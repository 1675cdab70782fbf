package ankihost

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sky-flux/meld"
)

func lowerLess(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// weightKeys are the preset config locations that have held FSRS
// weights across host versions, in preference order: newest first.
var weightKeys = []string{
	"fsrsParams6", "fsrs_params6",
	"fsrsParams5", "fsrs_params5",
	"fsrsParams", "fsrs_params",
	"fsrsWeights", "fsrs_weights",
}

// nestedWeightKeys are tried under a "fsrs" sub-object.
var nestedWeightKeys = []string{"weights", "params", "parameters"}

// ExtractWeights pulls the FSRS weight vector out of a decoded preset
// config, trying version-specific keys newest-first. Returns nil when
// no key holds a non-empty numeric sequence.
func ExtractWeights(config map[string]any) meld.ParameterVector {
	if len(config) == 0 {
		return nil
	}

	for _, key := range weightKeys {
		if w := toWeights(config[key]); w != nil {
			return w
		}
	}
	if fsrs, ok := config["fsrs"].(map[string]any); ok {
		for _, key := range nestedWeightKeys {
			if w := toWeights(fsrs[key]); w != nil {
				return w
			}
		}
	}
	return nil
}

// toWeights converts a decoded JSON sequence to a weight vector.
// Empty sequences and non-numeric elements yield nil.
func toWeights(v any) meld.ParameterVector {
	seq, ok := v.([]any)
	if !ok || len(seq) == 0 {
		return nil
	}
	out := make(meld.ParameterVector, len(seq))
	for i, elem := range seq {
		switch n := elem.(type) {
		case float64:
			out[i] = n
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil
			}
			out[i] = f
		default:
			return nil
		}
	}
	return out
}

// Preset is a named scheduling preset with its stored FSRS weights.
type Preset struct {
	ID      int64
	Name    string
	Weights meld.ParameterVector
}

// Presets returns each preset that carries FSRS weights, ordered by
// case-insensitive name. It reads the legacy col.dconf JSON; presets
// without weights are skipped. Useful for advising on stored preset
// parameters without refitting every deck.
func (c *Collection) Presets(ctx context.Context) ([]Preset, error) {
	var raw string
	if err := c.db.QueryRowContext(ctx, `SELECT dconf FROM col`).Scan(&raw); err != nil {
		return nil, fmt.Errorf("ankihost: read col dconf: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	var confs map[string]map[string]any
	if err := json.Unmarshal([]byte(raw), &confs); err != nil {
		return nil, fmt.Errorf("ankihost: decode col dconf: %w", err)
	}

	var presets []Preset
	for id, conf := range confs {
		weights := ExtractWeights(conf)
		if weights == nil {
			continue
		}
		confID, err := parseConfID(id, conf)
		if err != nil {
			return nil, err
		}
		name, _ := conf["name"].(string)
		if name == "" {
			name = fmt.Sprintf("Preset %d", confID)
		}
		presets = append(presets, Preset{ID: confID, Name: name, Weights: weights})
	}

	sort.Slice(presets, func(i, j int) bool {
		return lowerLess(presets[i].Name, presets[j].Name)
	})
	return presets, nil
}

func parseConfID(key string, conf map[string]any) (int64, error) {
	if id, ok := conf["id"].(float64); ok {
		return int64(id), nil
	}
	var id int64
	if _, err := fmt.Sscanf(key, "%d", &id); err != nil {
		return 0, fmt.Errorf("ankihost: preset id %q: %w", key, err)
	}
	return id, nil
}
