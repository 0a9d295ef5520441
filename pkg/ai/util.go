package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema reflects a JSON schema from a Go type for
// schema-constrained generation. Additional properties are forbidden
// and definitions are inlined, which is what the structured-output
// endpoints expect.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return reflector.Reflect(reflect.New(t).Interface())
}

// UnmarshalFlexible parses model output into out, tolerating the usual
// failure modes of generated JSON. It tries, in order: the input as-is,
// the input as a double-encoded JSON string, and a repaired form of the
// input (unquoted keys, trailing commas, a doubled opening brace).
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	// Some models return the object serialized inside a JSON string.
	var inner string
	if err := json.Unmarshal([]byte(input), &inner); err == nil {
		inner = strings.TrimSpace(inner)
		if err := json.Unmarshal([]byte(inner), out); err == nil {
			return nil
		}
		input = inner
	}

	input = trimDoubledBrace(input)
	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w (input: %s)", err, input)
	}

	if err := json.Unmarshal([]byte(repaired), out); err == nil {
		return nil
	}

	return fmt.Errorf(
		"unmarshal failed after repair: input=%s repaired=%s",
		input, repaired,
	)
}

// trimDoubledBrace drops a stuttered opening brace ("{{...") that the
// repair pass would otherwise read as a nested object.
func trimDoubledBrace(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		rest := strings.TrimSpace(s[1:])
		if strings.HasPrefix(rest, "{") {
			return rest
		}
	}
	return s
}
