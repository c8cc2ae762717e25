// Package symptom implements the rule-based symptom checker: a static weight
// table scored against a reported symptom list, a top-N ranker, a coarse risk
// tier and the advice attached to it. The Engine is immutable once built and
// performs no I/O, so a single instance serves all requests.
package symptom

import (
	"sort"
	"strings"
)

// MaxConditions is the number of ranked conditions returned by Analyze.
const MaxConditions = 3

// RiskLevel is the coarse urgency tier of a symptom report.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// mediumRiskCount is the report length (duplicates included) that raises Low to Medium.
const mediumRiskCount = 3

var advice = map[RiskLevel]string{
	RiskHigh:   "Seek immediate medical attention.",
	RiskMedium: "Consult a healthcare professional if symptoms persist.",
	RiskLow:    "Monitor symptoms and maintain adequate rest and hydration.",
}

var defaultConditions = []Condition{
	{Name: "Viral Infection", Symptoms: []SymptomWeight{
		{"fever", 0.8}, {"fatigue", 0.6}, {"body aches", 0.7}, {"cough", 0.5}, {"sore throat", 0.4},
	}},
	{Name: "Seasonal Flu", Symptoms: []SymptomWeight{
		{"fever", 0.9}, {"cough", 0.8}, {"fatigue", 0.7}, {"headache", 0.6}, {"body aches", 0.8},
	}},
	{Name: "Respiratory Issue", Symptoms: []SymptomWeight{
		{"shortness of breath", 0.9}, {"cough", 0.6}, {"chest pain", 0.7},
	}},
	{Name: "Cardiac Risk", Symptoms: []SymptomWeight{
		{"chest pain", 1.0}, {"shortness of breath", 0.9}, {"dizziness", 0.6}, {"fatigue", 0.4},
	}},
	{Name: "Gastrointestinal Issue", Symptoms: []SymptomWeight{
		{"nausea", 0.7}, {"vomiting", 0.8}, {"diarrhea", 0.8}, {"stomach pain", 0.6}, {"loss of appetite", 0.5},
	}},
}

var defaultHighRisk = []string{"chest pain", "shortness of breath"}

var defaultEngine = NewEngine(mustWeightTable(defaultConditions), defaultHighRisk)

// DefaultConditions returns a copy of the built-in weight table in definition order.
func DefaultConditions() []Condition {
	return defaultEngine.table.Conditions()
}

// DefaultHighRisk returns the symptoms that always yield RiskHigh.
func DefaultHighRisk() []string {
	return append([]string(nil), defaultHighRisk...)
}

// Result is the outcome of a symptom analysis.
type Result struct {
	Conditions []ConditionScore `json:"conditions" bson:"conditions"`
	RiskLevel  RiskLevel        `json:"risk_level" bson:"risk_level"`
	Advice     string           `json:"advice" bson:"advice"`
}

// Engine scores symptom reports against a weight table.
type Engine struct {
	table    *WeightTable
	highRisk map[string]struct{}
}

// NewEngine builds an engine over table. High-risk symptom names are normalized.
func NewEngine(table *WeightTable, highRisk []string) *Engine {
	set := make(map[string]struct{}, len(highRisk))
	for _, s := range highRisk {
		if n := normalizeOne(s); n != "" {
			set[n] = struct{}{}
		}
	}
	return &Engine{table: table, highRisk: set}
}

// DefaultEngine returns the shared engine over the built-in table.
func DefaultEngine() *Engine { return defaultEngine }

// Table returns the engine's weight table.
func (e *Engine) Table() *WeightTable { return e.table }

// Analyze normalizes the report, scores and ranks conditions and assigns a
// risk tier. It never fails: an empty or unrecognized report yields no
// conditions and RiskLow.
func (e *Engine) Analyze(symptoms []string) Result {
	normalized := Normalize(symptoms)
	level := e.Classify(normalized)
	return Result{
		Conditions: Rank(e.table.Score(normalized)),
		RiskLevel:  level,
		Advice:     Advice(level),
	}
}

// Classify derives the risk tier from normalized symptoms. The first matching
// rule wins: any high-risk symptom, then a report of three or more entries.
func (e *Engine) Classify(symptoms []string) RiskLevel {
	for _, s := range symptoms {
		if _, ok := e.highRisk[s]; ok {
			return RiskHigh
		}
	}
	if len(symptoms) >= mediumRiskCount {
		return RiskMedium
	}
	return RiskLow
}

// Advice returns the fixed advisory message for a risk tier.
func Advice(level RiskLevel) string {
	if msg, ok := advice[level]; ok {
		return msg
	}
	return advice[RiskLow]
}

// Rank orders scores by confidence, highest first, keeping table order among
// ties, drops zero scores and keeps at most MaxConditions entries.
func Rank(scores []ConditionScore) []ConditionScore {
	ranked := make([]ConditionScore, 0, len(scores))
	for _, s := range scores {
		if s.Confidence > 0 {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	if len(ranked) > MaxConditions {
		ranked = ranked[:MaxConditions]
	}
	return ranked
}

// Normalize trims and lower-cases every entry. Order, length and duplicates
// are preserved.
func Normalize(symptoms []string) []string {
	out := make([]string, len(symptoms))
	for i, s := range symptoms {
		out[i] = normalizeOne(s)
	}
	return out
}

func normalizeOne(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
