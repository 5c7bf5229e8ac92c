package shortcode

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// DefinitionValidator checks a definition before it is stored.
type DefinitionValidator interface {
	ValidateDefinition(def interfaces.ShortcodeDefinition) error
}

// Registry stores definitions by canonical name and resolves the aliases
// exported sites use for them. Safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]interfaces.ShortcodeDefinition
	aliases     map[string]string
	validator   DefinitionValidator
}

func NewRegistry(validator DefinitionValidator) *Registry {
	return &Registry{
		definitions: make(map[string]interfaces.ShortcodeDefinition),
		aliases:     make(map[string]string),
		validator:   validator,
	}
}

// canonicalName folds a tag the way the exporting site matched it.
func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register stores def and its aliases. A name or alias already claimed by
// another definition fails the whole registration.
func (r *Registry) Register(def interfaces.ShortcodeDefinition) error {
	name := canonicalName(def.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if r.validator != nil {
		if err := r.validator.ValidateDefinition(def); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.claimed(name) {
		return fmt.Errorf("%w: %s", ErrDuplicateDefinition, name)
	}
	aliases := make([]string, 0, len(def.Aliases))
	for _, alias := range def.Aliases {
		alias = canonicalName(alias)
		if alias == "" || alias == name {
			continue
		}
		if r.claimed(alias) {
			return fmt.Errorf("%w: alias %s", ErrDuplicateDefinition, alias)
		}
		aliases = append(aliases, alias)
	}

	r.definitions[name] = def
	for _, alias := range aliases {
		r.aliases[alias] = name
	}
	return nil
}

func (r *Registry) claimed(name string) bool {
	if _, ok := r.definitions[name]; ok {
		return true
	}
	_, ok := r.aliases[name]
	return ok
}

// Get resolves name, or one of its aliases, to a definition.
func (r *Registry) Get(name string) (interfaces.ShortcodeDefinition, bool) {
	key := canonicalName(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if target, ok := r.aliases[key]; ok {
		key = target
	}
	def, ok := r.definitions[key]
	return def, ok
}

// List returns the definitions sorted by name. Aliases are not listed.
func (r *Registry) List() []interfaces.ShortcodeDefinition {
	r.mu.RLock()
	result := make([]interfaces.ShortcodeDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		result = append(result, def)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return canonicalName(result[i].Name) < canonicalName(result[j].Name)
	})
	return result
}

// Remove drops a definition together with its aliases. Removing an alias
// only unbinds the alias.
func (r *Registry) Remove(name string) {
	key := canonicalName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.aliases[key]; ok {
		delete(r.aliases, key)
		return
	}
	delete(r.definitions, key)
	for alias, target := range r.aliases {
		if target == key {
			delete(r.aliases, alias)
		}
	}
}

var _ interfaces.ShortcodeRegistry = (*Registry)(nil)
