package orm

import (
	"encoding/json"
	"fmt"
	"time"
)

// Serialize returns m's attributes (minus hidden, or only visible), every
// loaded relation serialized recursively, and every appended computed
// attribute, with date fields ISO-8601 formatted (spec §4.4 "Serialization").
// Using both Hidden and Visible on the same model is a ConfigurationError.
func Serialize(m Model) (map[string]any, error) {
	b := m.Base()
	meta := b.meta
	if len(meta.Hidden) > 0 && len(meta.Visible) > 0 {
		return nil, &ErrConfiguration{Reason: "model declares both hidden and visible attribute sets"}
	}

	hidden := toSet(meta.Hidden)
	visible := toSet(meta.Visible)
	useVisible := len(meta.Visible) > 0

	out := map[string]any{}
	for name := range b.attributes {
		if useVisible && !visible[name] {
			continue
		}
		if !useVisible && hidden[name] {
			continue
		}
		out[name] = serializeValue(isDateColumn(meta, name), b.Get(m, name))
	}

	for name, rel := range b.relations {
		out[name] = serializeRelationValue(rel)
	}

	for _, appended := range meta.Appends {
		if fn, ok := meta.Accessors[appended]; ok {
			out[appended] = fn(m)
		}
	}

	return out, nil
}

func serializeRelationValue(rel any) any {
	switch v := rel.(type) {
	case Model:
		data, err := Serialize(v)
		if err != nil {
			return nil
		}
		return data
	case []Model:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			data, err := Serialize(item)
			if err == nil {
				out = append(out, data)
			}
		}
		return out
	default:
		return v
	}
}

func isDateColumn(meta *Metadata, name string) bool {
	if meta.Casts[name] == CastDatetime {
		return true
	}
	for _, d := range meta.Dates {
		if d == name {
			return true
		}
	}
	return name == "created_at" || name == "updated_at" || name == meta.DeletedAtColumn
}

func serializeValue(isDate bool, v any) any {
	if !isDate || v == nil {
		return v
	}
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return v
}

// ToJSON encodes Serialize's output as UTF-8 JSON (spec §6 "to_json()
// emits UTF-8 JSON").
func ToJSON(m Model) ([]byte, error) {
	data, err := Serialize(m)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("orm: serialize %s: %w", m.Base().meta.TypeName, err)
	}
	return encoded, nil
}
