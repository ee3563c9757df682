package geminiservice

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
)

// decodeStructured turns raw model text into out. The text must be a single JSON
// document; when schema is non-nil the decoded value is checked against it
// before being bound to out, so missing required keys are caught even where Go
// would silently zero them.
func decodeStructured(text string, schema *GeminiSchema, out any) error {
	cleaned := stripCodeFence(text)
	if cleaned == "" {
		return fmt.Errorf("%w: empty response", ErrResponseFormat)
	}

	var generic any
	if err := json.Unmarshal([]byte(cleaned), &generic); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseFormat, err)
	}

	if schema != nil {
		if err := validateValue(generic, schema, "$"); err != nil {
			return err
		}
	}

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseFormat, err)
	}
	return nil
}

// stripCodeFence removes a surrounding ```json ... ``` block if the model added one anyway.
func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	} else {
		t = strings.TrimPrefix(t, "json")
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

func schemaViolation(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrResponseFormat, path, fmt.Sprintf(format, args...))
}

// validateValue walks v alongside the schema. Keys the schema does not declare
// are accepted, matching how the API treats them.
func validateValue(v any, s *GeminiSchema, path string) error {
	switch s.Type {
	case "OBJECT":
		obj, ok := v.(map[string]any)
		if !ok {
			return schemaViolation(path, "expected object, got %s", jsonKind(v))
		}
		for _, key := range s.Required {
			val, present := obj[key]
			if !present || val == nil {
				return schemaViolation(path+"."+key, "required field is missing")
			}
		}
		for key, child := range s.Properties {
			val, present := obj[key]
			if !present || val == nil {
				continue
			}
			if err := validateValue(val, child, path+"."+key); err != nil {
				return err
			}
		}

	case "ARRAY":
		arr, ok := v.([]any)
		if !ok {
			return schemaViolation(path, "expected array, got %s", jsonKind(v))
		}
		if len(arr) < s.MinItems {
			return schemaViolation(path, "expected at least %d items, got %d", s.MinItems, len(arr))
		}
		if s.Items != nil {
			for i, item := range arr {
				if err := validateValue(item, s.Items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}

	case "STRING":
		str, ok := v.(string)
		if !ok {
			return schemaViolation(path, "expected string, got %s", jsonKind(v))
		}
		if s.NonEmpty && strings.TrimSpace(str) == "" {
			return schemaViolation(path, "must not be empty")
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			return schemaViolation(path, "%q is not one of %s", str, strings.Join(s.Enum, ", "))
		}

	case "NUMBER":
		if _, ok := v.(float64); !ok {
			return schemaViolation(path, "expected number, got %s", jsonKind(v))
		}

	case "INTEGER":
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) {
			return schemaViolation(path, "expected integer, got %s", jsonKind(v))
		}

	case "BOOLEAN":
		if _, ok := v.(bool); !ok {
			return schemaViolation(path, "expected boolean, got %s", jsonKind(v))
		}
	}
	return nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}

// keyShape flattens a decoded JSON document into path -> kind. Two documents
// with equal shapes have the same keys, array lengths and leaf kinds.
func keyShape(v any) map[string]string {
	shape := make(map[string]string)
	collectShape(v, "$", shape)
	return shape
}

func collectShape(v any, path string, shape map[string]string) {
	shape[path] = jsonKind(v)
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			collectShape(child, path+"."+k, shape)
		}
	case []any:
		for i, child := range t {
			collectShape(child, fmt.Sprintf("%s[%d]", path, i), shape)
		}
	}
}

// diffShapes reports the first few paths that differ between two shapes, or "" when equal.
func diffShapes(want, got map[string]string) string {
	var diffs []string
	for path, kind := range want {
		gotKind, ok := got[path]
		switch {
		case !ok:
			diffs = append(diffs, "missing "+path)
		case gotKind != kind:
			diffs = append(diffs, fmt.Sprintf("%s changed from %s to %s", path, kind, gotKind))
		}
	}
	for path := range got {
		if _, ok := want[path]; !ok {
			diffs = append(diffs, "unexpected "+path)
		}
	}
	if len(diffs) == 0 {
		return ""
	}
	slices.Sort(diffs)
	if len(diffs) > 5 {
		diffs = append(diffs[:5], fmt.Sprintf("and %d more", len(diffs)-5))
	}
	return strings.Join(diffs, "; ")
}
