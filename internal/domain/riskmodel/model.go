// Package riskmodel serves a fixed-weight logistic risk predictor over three
// lifestyle vitals. The weights are not trained; the output is a prototype
// score and is labelled as such.
package riskmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultRestingHR  = 70.0
	DefaultSleepHours = 7.0
	DefaultSteps      = 6000.0

	details = "Prototype model prediction"
)

// Risk labels.
const (
	LabelLow      = "Low"
	LabelModerate = "Moderate"
	LabelHigh     = "High"
)

// Input holds the predictor features. Fields missing from a JSON body keep
// their current value, so decode into DefaultInput().
type Input struct {
	RestingHR  float64 `json:"resting_hr"`
	SleepHours float64 `json:"sleep_hours"`
	Steps      float64 `json:"steps"`
}

// DefaultInput returns the values used for omitted features.
func DefaultInput() Input {
	return Input{RestingHR: DefaultRestingHR, SleepHours: DefaultSleepHours, Steps: DefaultSteps}
}

// UnmarshalJSON accepts numbers or numeric strings. null leaves a field unchanged.
func (in *Input) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := []struct {
		key string
		dst *float64
	}{
		{"resting_hr", &in.RestingHR},
		{"sleep_hours", &in.SleepHours},
		{"steps", &in.Steps},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		n, set, err := parseNumber(v)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		if set {
			*f.dst = n
		}
	}
	return nil
}

func parseNumber(v json.RawMessage) (float64, bool, error) {
	v = bytes.TrimSpace(v)
	if bytes.Equal(v, []byte("null")) {
		return 0, false, nil
	}

	var s string
	if len(v) > 0 && v[0] == '"' {
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(v)
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false, fmt.Errorf("not a number: %s", v)
	}
	return n, true, nil
}

// Prediction is the predictor's response.
type Prediction struct {
	RiskScore float64 `json:"risk_score"`
	RiskLabel string  `json:"risk_label"`
	Details   string  `json:"details"`
}

// Model is a single linear layer followed by a sigmoid.
type Model struct {
	Weights [3]float64 // resting_hr, sleep_hours, steps
	Bias    float64
}

// Prototype is the fixed, untrained model served by the API.
var Prototype = Model{
	Weights: [3]float64{0.04, -0.35, -0.0002},
	Bias:    -1.0,
}

// Score returns the sigmoid output in (0,1).
func (m Model) Score(in Input) float64 {
	z := m.Bias +
		m.Weights[0]*in.RestingHR +
		m.Weights[1]*in.SleepHours +
		m.Weights[2]*in.Steps
	return 1 / (1 + math.Exp(-z))
}

// Predict scores the input and labels it. The label uses the unrounded score.
func (m Model) Predict(in Input) Prediction {
	score := m.Score(in)
	return Prediction{
		RiskScore: math.Round(score*1000) / 1000,
		RiskLabel: Label(score),
		Details:   details,
	}
}

// Label maps a score to Low (<0.33), Moderate (<0.66) or High.
func Label(score float64) string {
	switch {
	case score < 0.33:
		return LabelLow
	case score < 0.66:
		return LabelModerate
	default:
		return LabelHigh
	}
}
