package calibration

import (
	"encoding/json"
	"fmt"
	"os"

	"harvest-mcp/internal/maturation"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rs/zerolog/log"
)

// overrideFile is the on-disk shape of a calibration override. Every section is
// optional; present entries replace the matching defaults.
type overrideFile struct {
	Rates          map[string][4]float64 `json:"rates,omitempty"`
	Windows        map[string][2]float64 `json:"windows,omitempty"`
	FruitsPerLiter map[string]float64    `json:"fruits_per_liter,omitempty"`
	YieldPerLiter  map[string]float64    `json:"yield_per_liter,omitempty"`
}

func overrideSchema() *jsonschema.Schema {
	zero := 0.0
	two, four := 2, 4
	nonNegative := &jsonschema.Schema{Type: "number", Minimum: &zero}
	positive := &jsonschema.Schema{Type: "number", ExclusiveMinimum: &zero}
	closed := &jsonschema.Schema{Not: &jsonschema.Schema{}}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"rates": {
				Type:                 "object",
				AdditionalProperties: &jsonschema.Schema{Type: "array", Items: nonNegative, MinItems: &four, MaxItems: &four},
			},
			"windows": {
				Type:                 "object",
				AdditionalProperties: &jsonschema.Schema{Type: "array", Items: nonNegative, MinItems: &two, MaxItems: &two},
			},
			"fruits_per_liter": {Type: "object", AdditionalProperties: positive},
			"yield_per_liter":  {Type: "object", AdditionalProperties: positive},
		},
		AdditionalProperties: closed,
	}
}

// Load returns the default tables overlaid with the JSON override at path.
// An empty path yields the defaults.
func Load(path string) (*Tables, error) {
	tables := Default()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}

	tables, err = Apply(tables, data)
	if err != nil {
		return nil, fmt.Errorf("calibration file %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg("Loaded calibration overrides")
	return tables, nil
}

// Apply validates raw JSON against the override schema and merges it over base.
// base is not modified.
func Apply(base *Tables, data []byte) (*Tables, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalibration, err)
	}

	resolved, err := overrideSchema().Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve calibration schema: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalibration, err)
	}

	var file overrideFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalibration, err)
	}

	tables := base.Clone()
	for name, k := range file.Rates {
		m, err := ParseMonth(name)
		if err != nil {
			return nil, err
		}
		tables.Rates[m] = maturation.Rates{K1: k[0], K2: k[1], K3: k[2], K4: k[3]}
	}
	for name, w := range file.Windows {
		m, err := ParseCalendarMonth(name)
		if err != nil {
			return nil, err
		}
		tables.Windows[m] = Window{MinDays: w[0], MaxDays: w[1]}
	}
	for name, v := range file.FruitsPerLiter {
		s, err := maturation.ParseStage(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCalibration, err)
		}
		tables.Stages[s].FruitsPerLiter = v
	}
	for name, v := range file.YieldPerLiter {
		s, err := maturation.ParseStage(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCalibration, err)
		}
		tables.Stages[s].YieldPerLiter = v
	}

	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return tables, nil
}
