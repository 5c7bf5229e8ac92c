package shortcode

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Validator checks definitions and binds the attributes of an invocation to
// a definition schema.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDefinition requires a name and a schema whose parameters are
// uniquely named with a known type.
func (v *Validator) ValidateDefinition(def interfaces.ShortcodeDefinition) error {
	if canonicalName(def.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	seen := make(map[string]struct{}, len(def.Schema.Params))
	for _, param := range def.Schema.Params {
		name := canonicalName(param.Name)
		if name == "" {
			return fmt.Errorf("%w: %s has an unnamed parameter", ErrInvalidDefinition, def.Name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s declares %q twice", ErrInvalidDefinition, def.Name, name)
		}
		seen[name] = struct{}{}
		if !knownType(param.Type) {
			return fmt.Errorf("%w: %s parameter %q has type %q", ErrInvalidDefinition, def.Name, name, param.Type)
		}
	}
	return nil
}

func knownType(t interfaces.ShortcodeParamType) bool {
	switch t {
	case interfaces.ShortcodeParamString, interfaces.ShortcodeParamInt, interfaces.ShortcodeParamBool,
		interfaces.ShortcodeParamArray, interfaces.ShortcodeParamURL:
		return true
	}
	return false
}

// CoerceParams binds supplied attributes to def. Attribute names match case
// insensitively, defaults fill absent parameters and undeclared attributes
// are rejected unless the schema allows them, in which case they are dropped.
func (v *Validator) CoerceParams(def interfaces.ShortcodeDefinition, supplied map[string]any) (map[string]any, error) {
	if err := v.ValidateDefinition(def); err != nil {
		return nil, err
	}

	declared := make(map[string]interfaces.ShortcodeParam, len(def.Schema.Params))
	out := make(map[string]any, len(def.Schema.Params))
	for _, param := range def.Schema.Params {
		declared[canonicalName(param.Name)] = param
		if value, ok := def.Schema.Defaults[param.Name]; ok {
			out[param.Name] = value
		} else if param.Default != nil {
			out[param.Name] = param.Default
		}
	}

	for key, raw := range supplied {
		param, ok := declared[canonicalName(key)]
		if !ok {
			if def.Schema.AllowUnknown {
				continue
			}
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownParameter, key, def.Name)
		}
		value, err := coerce(param.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s on %s: %v", ErrParameterType, key, def.Name, err)
		}
		if param.Validate != nil {
			if err := param.Validate(value); err != nil {
				return nil, err
			}
		}
		out[param.Name] = value
	}

	for _, param := range def.Schema.Params {
		if _, ok := out[param.Name]; param.Required && !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrMissingParameter, param.Name, def.Name)
		}
	}
	return out, nil
}

func coerce(t interfaces.ShortcodeParamType, raw any) (any, error) {
	switch t {
	case interfaces.ShortcodeParamInt:
		return coerceInt(raw)
	case interfaces.ShortcodeParamBool:
		return coerceBool(raw)
	case interfaces.ShortcodeParamArray:
		return coerceList(raw), nil
	case interfaces.ShortcodeParamURL:
		return coerceURL(raw)
	default:
		return stringOf(raw), nil
	}
}

func stringOf(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	}
	return fmt.Sprint(raw)
}

// coerceInt reads a leading integer the way exported markup writes sizes:
// "300", "300px" and "4.0" are all accepted, a blank value is zero.
func coerceInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}

	s := strings.TrimSpace(stringOf(raw))
	if s == "" {
		return 0, nil
	}
	end := 0
	if s[0] == '-' || s[0] == '+' {
		end = 1
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return n, nil
}

func coerceBool(raw any) (bool, error) {
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	if n, ok := raw.(int); ok {
		return n != 0, nil
	}
	switch strings.ToLower(strings.TrimSpace(stringOf(raw))) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "", "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", stringOf(raw))
}

// coerceList splits comma separated values, dropping blanks.
func coerceList(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	}
	var out []any
	for _, part := range strings.Split(stringOf(raw), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// coerceURL accepts absolute and site relative references. Anything the
// link rewriter could not place, like a bare word with spaces, fails.
func coerceURL(raw any) (string, error) {
	s := strings.TrimSpace(stringOf(raw))
	if s == "" || s == "#" {
		return s, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" && u.Host == "" && strings.ContainsAny(u.Path, " \t") {
		return "", fmt.Errorf("%q is not a link", s)
	}
	return s, nil
}
