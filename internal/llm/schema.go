package llm

// Schema is a provider-independent subset of JSON Schema, covering what tool
// parameter declarations and structured outputs need. Adapters translate it
// into their provider's native representation.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

const (
	TypeObject  = "object"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
)

// String builds a string property schema with a description.
func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// Number builds a number property schema with a description.
func Number(description string) *Schema {
	return &Schema{Type: TypeNumber, Description: description}
}

// StringEnum builds a string property constrained to the given values.
func StringEnum(description string, values ...string) *Schema {
	return &Schema{Type: TypeString, Description: description, Enum: values}
}

// Object builds an object schema. required lists property names that must be
// present; every name must exist in properties.
func Object(description string, properties map[string]*Schema, required ...string) *Schema {
	return &Schema{
		Type:        TypeObject,
		Description: description,
		Properties:  properties,
		Required:    required,
	}
}
