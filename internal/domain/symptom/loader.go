package symptom

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk layout of a weight table:
//
//	conditions:
//	  - name: Seasonal Flu
//	    symptoms:
//	      - {symptom: fever, weight: 0.9}
//	high_risk: [chest pain]
type tableFile struct {
	Conditions []Condition `yaml:"conditions"`
	HighRisk   []string    `yaml:"high_risk"`
}

// LoadEngine reads a YAML weight table from path. When the file omits
// high_risk, the built-in high-risk symptoms are used.
func LoadEngine(path string) (*Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weight table: %w", err)
	}
	defer f.Close()
	return DecodeEngine(f)
}

// DecodeEngine parses a YAML weight table. Unknown keys are rejected.
func DecodeEngine(r io.Reader) (*Engine, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var tf tableFile
	if err := dec.Decode(&tf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode weight table: empty document")
		}
		return nil, fmt.Errorf("decode weight table: %w", err)
	}

	table, err := NewWeightTable(tf.Conditions)
	if err != nil {
		return nil, err
	}
	highRisk := tf.HighRisk
	if len(highRisk) == 0 {
		highRisk = defaultHighRisk
	}
	return NewEngine(table, highRisk), nil
}
