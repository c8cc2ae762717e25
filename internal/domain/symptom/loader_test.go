package symptom

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const customTable = `
conditions:
  - name: Migraine
    symptoms:
      - {symptom: headache, weight: 1.0}
      - {symptom: Light Sensitivity, weight: 0.5}
  - name: Dehydration
    symptoms:
      - {symptom: dizziness, weight: 0.8}
      - {symptom: headache, weight: 0.2}
high_risk: [fainting]
`

func TestDecodeEngine(t *testing.T) {
	e, err := DecodeEngine(strings.NewReader(customTable))
	if err != nil {
		t.Fatalf("DecodeEngine: %v", err)
	}
	if e.Table().Len() != 2 {
		t.Fatalf("expected 2 conditions, got %d", e.Table().Len())
	}

	got := e.Analyze([]string{"headache", "light sensitivity"})
	want := Result{
		Conditions: []ConditionScore{
			{Name: "Migraine", Confidence: 1},
			{Name: "Dehydration", Confidence: 0.2},
		},
		RiskLevel: RiskLow,
		Advice:    Advice(RiskLow),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if e.Analyze([]string{"Fainting"}).RiskLevel != RiskHigh {
		t.Error("expected custom high-risk symptom to yield High")
	}
	if e.Analyze([]string{"chest pain"}).RiskLevel != RiskLow {
		t.Error("expected built-in high-risk set to be replaced")
	}
}

func TestDecodeEngine_DefaultHighRisk(t *testing.T) {
	doc := `
conditions:
  - name: Only
    symptoms:
      - {symptom: cough, weight: 0.5}
`
	e, err := DecodeEngine(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeEngine: %v", err)
	}
	if e.Analyze([]string{"shortness of breath"}).RiskLevel != RiskHigh {
		t.Error("expected built-in high-risk symptoms when high_risk is omitted")
	}
}

func TestDecodeEngine_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty", "", "empty document"},
		{"unknown key", "conditions: []\nextra: 1\n", "field extra not found"},
		{"no conditions", "conditions: []\n", "at least one condition"},
		{"bad weight", "conditions:\n  - name: X\n    symptoms:\n      - {symptom: a, weight: 2}\n", "outside (0,1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEngine(strings.NewReader(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	if err := os.WriteFile(path, []byte(customTable), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	e, err := LoadEngine(path)
	if err != nil {
		t.Fatalf("LoadEngine: %v", err)
	}
	if e.Table().Len() != 2 {
		t.Errorf("expected 2 conditions, got %d", e.Table().Len())
	}

	if _, err := LoadEngine(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
