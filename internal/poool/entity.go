package poool

import (
	"encoding/json"
	"fmt"
)

// Entity is one CRM record. Poool entities carry arbitrary fields, so they
// are kept as decoded JSON objects; helpers cover the handful of fields the
// reconciliation logic reads.
type Entity map[string]interface{}

// ID returns the numeric entity ID, or 0 when absent.
func (e Entity) ID() int {
	switch v := e["id"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

// StringField returns the entity's value at key rendered as a string. Numeric
// JSON values are rendered without a decimal point when integral, matching
// how identifier values arrive from spreadsheets.
func (e Entity) StringField(key string) string {
	value, ok := e[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Name returns the company name.
func (e Entity) Name() string {
	return e.StringField("name")
}

// DisplayName returns a human-readable name: the company name if present,
// otherwise first and last name joined.
func (e Entity) DisplayName() string {
	if name := e.Name(); name != "" {
		return name
	}
	full := e.StringField("firstname")
	if last := e.StringField("lastname"); last != "" {
		if full != "" {
			full += " "
		}
		full += last
	}
	if full == "" {
		return "Unknown"
	}
	return full
}

func decodeEntity(data json.RawMessage) (Entity, error) {
	var entity Entity
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func decodeEntities(data json.RawMessage) ([]Entity, error) {
	var entities []Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}
