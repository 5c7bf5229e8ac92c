package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// manifestSchemas maps manifest file names to embedded schema files.
var manifestSchemas = map[string]string{
	"demo.json":              "demo.json",
	"pages.json":             "pages.json",
	"menus.json":             "menus.json",
	"media.json":             "media.json",
	"products.json":          "products.json",
	"menu-locations.json":    "overrides.json",
	"theme_mods.json":        "overrides.json",
	"widgets.json":           "overrides.json",
	"elementor_options.json": "overrides.json",
	"elementor_kit.json":     "overrides.json",
}

var ErrSchemaInvalid = errors.New("manifest schema invalid")

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	File     string `json:"file"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

func (i ValidationIssue) String() string {
	location := strings.TrimSpace(i.Location)
	if location == "" {
		location = "#"
	} else if !strings.HasPrefix(location, "#") {
		location = "#" + location
	}
	return fmt.Sprintf("%s %s: %s", i.File, location, i.Message)
}

// Validator checks package manifests against the embedded schemas. It is only
// used by tooling; request handling stays tolerant of malformed files.
type Validator struct {
	once    sync.Once
	err     error
	schemas map[string]*jsonschema.Schema
}

// NewValidator returns a validator whose schemas compile on first use.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) compile() error {
	v.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		names := make(map[string]struct{})
		for _, schemaFile := range manifestSchemas {
			names[schemaFile] = struct{}{}
		}
		compiled := make(map[string]*jsonschema.Schema, len(names))
		for name := range names {
			data, err := fs.ReadFile(schemaFS, path.Join("schemas", name))
			if err != nil {
				v.err = fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, name, err)
				return
			}
			if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
				v.err = fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, name, err)
				return
			}
		}
		for name := range names {
			schema, err := compiler.Compile(name)
			if err != nil {
				v.err = fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, name, err)
				return
			}
			compiled[name] = schema
		}
		v.schemas = compiled
	})
	return v.err
}

// Manifests lists the file names the validator knows about, sorted.
func Manifests() []string {
	names := make([]string, 0, len(manifestSchemas))
	for name := range manifestSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateManifest checks raw JSON bytes of a known manifest file.
func (v *Validator) ValidateManifest(file string, data []byte) ([]ValidationIssue, error) {
	if err := v.compile(); err != nil {
		return nil, err
	}
	schemaName, ok := manifestSchemas[file]
	if !ok {
		return nil, nil
	}

	var doc any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return []ValidationIssue{{File: file, Message: "invalid JSON: " + err.Error()}}, nil
	}

	err := v.schemas[schemaName].Validate(doc)
	if err == nil {
		return nil, nil
	}
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return nil, err
	}
	issues := collectValidationIssues(validationErr)
	for i := range issues {
		issues[i].File = file
	}
	return issues, nil
}

// ValidatePackage checks every known manifest present in dir. demo.json is
// required; the rest are optional.
func (v *Validator) ValidatePackage(dir string) ([]ValidationIssue, error) {
	var issues []ValidationIssue
	for _, name := range Manifests() {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if name == "demo.json" {
					issues = append(issues, ValidationIssue{File: name, Message: "required manifest is missing"})
				}
				continue
			}
			return issues, err
		}
		found, err := v.ValidateManifest(name, data)
		if err != nil {
			return issues, err
		}
		issues = append(issues, found...)
	}
	return issues, nil
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
