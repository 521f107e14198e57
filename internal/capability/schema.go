package capability

import "fmt"

// FieldType is the declared type of one schema field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeBool   FieldType = "boolean"
	TypeObject FieldType = "object"
	TypeArray  FieldType = "array"
	TypeAny    FieldType = "any"
)

// Field declares one named input of a capability.
type Field struct {
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Purpose  string    `json:"purpose,omitempty"`
}

// Schema maps argument name to its declaration. A nil schema accepts
// anything.
type Schema map[string]Field

// Validate checks arguments against the schema: required fields must be
// present and typed fields must match. Unknown arguments pass through, the
// capability itself decides whether to ignore them.
func (s Schema) Validate(args map[string]any) error {
	for name, field := range s {
		value, present := args[name]
		if !present {
			if field.Required {
				return fmt.Errorf("missing required argument %q", name)
			}
			continue
		}
		if !matchesType(field.Type, value) {
			return fmt.Errorf("argument %q must be %s", name, field.Type)
		}
	}
	return nil
}

func matchesType(t FieldType, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case TypeBool:
		_, ok := v.(bool)
		return ok
	case TypeObject:
		_, ok := v.(map[string]any)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	case TypeAny, "":
		return true
	default:
		return true
	}
}
