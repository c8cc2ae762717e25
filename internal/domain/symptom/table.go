package symptom

import (
	"fmt"
	"math"
	"strings"
)

// SymptomWeight is a single symptom entry in a condition profile.
type SymptomWeight struct {
	Symptom string  `yaml:"symptom" json:"symptom"`
	Weight  float64 `yaml:"weight" json:"weight"`
}

// Condition is a named diagnosis category with its weighted symptom profile.
type Condition struct {
	Name     string          `yaml:"name" json:"name"`
	Symptoms []SymptomWeight `yaml:"symptoms" json:"symptoms"`
}

// ConditionScore is the normalized match strength of a report against one condition.
type ConditionScore struct {
	Name       string  `json:"name" bson:"name"`
	Confidence float64 `json:"confidence" bson:"confidence"`
}

type profile struct {
	name    string
	order   []SymptomWeight
	weights map[string]float64
	max     float64
}

// WeightTable is an ordered, read-only mapping of condition to symptom weights.
// It holds no mutable state and may be shared by any number of goroutines.
type WeightTable struct {
	profiles []profile
}

// NewWeightTable validates the conditions and builds a table that preserves
// their definition order. Symptom names are normalized the same way reports are.
func NewWeightTable(conditions []Condition) (*WeightTable, error) {
	if len(conditions) == 0 {
		return nil, fmt.Errorf("weight table: at least one condition is required")
	}

	t := &WeightTable{profiles: make([]profile, 0, len(conditions))}
	seen := make(map[string]bool, len(conditions))
	for i, c := range conditions {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("weight table: condition %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("weight table: duplicate condition %q", name)
		}
		seen[name] = true

		p := profile{
			name:    name,
			order:   make([]SymptomWeight, 0, len(c.Symptoms)),
			weights: make(map[string]float64, len(c.Symptoms)),
		}
		for _, sw := range c.Symptoms {
			s := normalizeOne(sw.Symptom)
			if s == "" {
				return nil, fmt.Errorf("weight table: condition %q has an empty symptom", name)
			}
			if _, dup := p.weights[s]; dup {
				return nil, fmt.Errorf("weight table: condition %q lists %q twice", name, s)
			}
			if sw.Weight <= 0 || sw.Weight > 1 || math.IsNaN(sw.Weight) {
				return nil, fmt.Errorf("weight table: %s/%s weight %v outside (0,1]", name, s, sw.Weight)
			}
			p.weights[s] = sw.Weight
			p.order = append(p.order, SymptomWeight{Symptom: s, Weight: sw.Weight})
			p.max += sw.Weight
		}
		t.profiles = append(t.profiles, p)
	}
	return t, nil
}

func mustWeightTable(conditions []Condition) *WeightTable {
	t, err := NewWeightTable(conditions)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of conditions in the table.
func (t *WeightTable) Len() int { return len(t.profiles) }

// Conditions returns a copy of the table contents in definition order.
func (t *WeightTable) Conditions() []Condition {
	out := make([]Condition, len(t.profiles))
	for i, p := range t.profiles {
		out[i] = Condition{Name: p.name, Symptoms: append([]SymptomWeight(nil), p.order...)}
	}
	return out
}

// Score computes a confidence for every condition, in table order. Symptoms
// must already be normalized. A symptom contributes its weight once per
// condition no matter how often it is reported; unknown symptoms contribute
// nothing. Weights are summed in profile order so a complete match divides
// exactly to 1.
func (t *WeightTable) Score(symptoms []string) []ConditionScore {
	reported := make(map[string]struct{}, len(symptoms))
	for _, s := range symptoms {
		reported[s] = struct{}{}
	}

	scores := make([]ConditionScore, len(t.profiles))
	for i, p := range t.profiles {
		var raw float64
		for _, sw := range p.order {
			if _, ok := reported[sw.Symptom]; ok {
				raw += sw.Weight
			}
		}
		var confidence float64
		if p.max > 0 {
			confidence = raw / p.max
		}
		scores[i] = ConditionScore{Name: p.name, Confidence: round2(confidence)}
	}
	return scores
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
