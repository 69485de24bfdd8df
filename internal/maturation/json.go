package maturation

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders the distribution keyed by stage name.
func (d Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// UnmarshalJSON accepts the stage-keyed form; missing stages are zero.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	values, err := decodeStageMap(data)
	if err != nil {
		return err
	}
	*d = Distribution(values)
	return nil
}

// MarshalJSON renders the counts keyed by stage name.
func (c Counts) MarshalJSON() ([]byte, error) {
	return json.Marshal(Distribution(c).Map())
}

// UnmarshalJSON accepts the stage-keyed form; missing stages are zero.
func (c *Counts) UnmarshalJSON(data []byte) error {
	values, err := decodeStageMap(data)
	if err != nil {
		return err
	}
	*c = Counts(values)
	return nil
}

func decodeStageMap(data []byte) ([NumStages]float64, error) {
	var out [NumStages]float64
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return out, err
	}
	for name, v := range raw {
		s, err := ParseStage(name)
		if err != nil {
			return out, fmt.Errorf("decode stages: %w", err)
		}
		out[s] = v
	}
	return out, nil
}
