package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SkillSignals maps skill names to 0-100 values, stored as JSONB.
type SkillSignals map[string]float64

// Scan implements the sql.Scanner interface for JSONB
func (s *SkillSignals) Scan(value interface{}) error {
	if value == nil {
		*s = make(SkillSignals)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SkillSignals", value)
	}

	var result map[string]float64
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*s = SkillSignals(result)
	return nil
}

// Value implements the driver.Valuer interface for JSONB
func (s SkillSignals) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// FloatVector stores an embedding vector as a JSONB float array.
type FloatVector []float64

// Scan implements the sql.Scanner interface for JSONB
func (v *FloatVector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into FloatVector", value)
	}

	var result []float64
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*v = FloatVector(result)
	return nil
}

// Value implements the driver.Valuer interface for JSONB
func (v FloatVector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
