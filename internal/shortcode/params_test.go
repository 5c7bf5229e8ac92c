package shortcode

import (
	"errors"
	"testing"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

func galleryLike() interfaces.ShortcodeDefinition {
	return interfaces.ShortcodeDefinition{
		Name: "gallery",
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{
				{Name: "ids", Type: interfaces.ShortcodeParamArray, Required: true},
				{Name: "columns", Type: interfaces.ShortcodeParamInt, Default: 3},
				{Name: "link", Type: interfaces.ShortcodeParamURL},
				{Name: "lightbox", Type: interfaces.ShortcodeParamBool, Default: false},
			},
		},
	}
}

func TestCoerceParamsBindsExportedAttributes(t *testing.T) {
	got, err := NewValidator().CoerceParams(galleryLike(), map[string]any{
		"IDS":      "4, 5,,6",
		"columns":  "2px",
		"link":     "/shop/",
		"lightbox": "yes",
	})
	if err != nil {
		t.Fatalf("CoerceParams: %v", err)
	}
	ids, _ := got["ids"].([]any)
	if len(ids) != 3 || ids[0] != "4" || ids[2] != "6" {
		t.Fatalf("unexpected ids: %#v", got["ids"])
	}
	if got["columns"] != 2 {
		t.Fatalf("expected columns 2, got %#v", got["columns"])
	}
	if got["link"] != "/shop/" || got["lightbox"] != true {
		t.Fatalf("unexpected binding: %#v", got)
	}
}

func TestCoerceParamsAppliesDefaults(t *testing.T) {
	got, err := NewValidator().CoerceParams(galleryLike(), map[string]any{"ids": "1"})
	if err != nil {
		t.Fatalf("CoerceParams: %v", err)
	}
	if got["columns"] != 3 || got["lightbox"] != false {
		t.Fatalf("defaults not applied: %#v", got)
	}
	if _, ok := got["link"]; ok {
		t.Fatalf("link has no default and must stay unset")
	}
}

func TestCoerceParamsErrors(t *testing.T) {
	v := NewValidator()
	def := galleryLike()

	cases := []struct {
		name   string
		params map[string]any
		want   error
	}{
		{"missing", map[string]any{}, ErrMissingParameter},
		{"unknown", map[string]any{"ids": "1", "orderby": "rand"}, ErrUnknownParameter},
		{"int", map[string]any{"ids": "1", "columns": "wide"}, ErrParameterType},
		{"bool", map[string]any{"ids": "1", "lightbox": "maybe"}, ErrParameterType},
		{"url", map[string]any{"ids": "1", "link": "not a link"}, ErrParameterType},
	}
	for _, tc := range cases {
		if _, err := v.CoerceParams(def, tc.params); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	def.Schema.AllowUnknown = true
	got, err := v.CoerceParams(def, map[string]any{"ids": "1", "orderby": "rand"})
	if err != nil {
		t.Fatalf("CoerceParams with AllowUnknown: %v", err)
	}
	if _, ok := got["orderby"]; ok {
		t.Fatalf("undeclared attribute must be dropped")
	}
}

func TestCoerceParamsRunsCustomValidation(t *testing.T) {
	def := interfaces.ShortcodeDefinition{
		Name: "alert",
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{{
				Name: "type",
				Type: interfaces.ShortcodeParamString,
				Validate: func(value any) error {
					if value != "info" {
						return errors.New("unsupported type")
					}
					return nil
				},
			}},
		},
	}
	if _, err := NewValidator().CoerceParams(def, map[string]any{"type": "info"}); err != nil {
		t.Fatalf("CoerceParams: %v", err)
	}
	if _, err := NewValidator().CoerceParams(def, map[string]any{"type": "shout"}); err == nil {
		t.Fatal("expected custom validation failure")
	}
}

func TestValidateDefinition(t *testing.T) {
	v := NewValidator()
	bad := []interfaces.ShortcodeDefinition{
		{Name: ""},
		{Name: "x", Schema: interfaces.ShortcodeSchema{Params: []interfaces.ShortcodeParam{{Name: "", Type: interfaces.ShortcodeParamString}}}},
		{Name: "x", Schema: interfaces.ShortcodeSchema{Params: []interfaces.ShortcodeParam{
			{Name: "a", Type: interfaces.ShortcodeParamString},
			{Name: "A", Type: interfaces.ShortcodeParamInt},
		}}},
		{Name: "x", Schema: interfaces.ShortcodeSchema{Params: []interfaces.ShortcodeParam{{Name: "a", Type: "float"}}}},
	}
	for i, def := range bad {
		if err := v.ValidateDefinition(def); !errors.Is(err, ErrInvalidDefinition) {
			t.Fatalf("case %d: expected ErrInvalidDefinition, got %v", i, err)
		}
	}
}
