package tools

import (
	"fmt"
	"sort"
	"sync"
)

// Definition describes a tool the agents may select.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// FeedbackMessage is shown to users while the tool is selected.
	FeedbackMessage string `json:"feedback_message,omitempty"`
}

// Registry stores tool definitions keyed by function name.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

// DefaultRegistry is the shared registry used by the status service.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]Definition),
	}
}

// Register adds a new definition.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}
	r.definitions[def.Name] = def
	return nil
}

// Lookup returns the definition for a function name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[name]
	return def, ok
}

// FeedbackMessage returns the feedback message for name, or "" when the tool
// is unknown.
func (r *Registry) FeedbackMessage(name string) string {
	def, _ := r.Lookup(name)
	return def.FeedbackMessage
}

// List returns all definitions sorted by name.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Register adds a definition to the default registry.
func Register(def Definition) error {
	return DefaultRegistry.Register(def)
}

// MustRegister adds a definition to the default registry or panics.
func MustRegister(def Definition) {
	if err := Register(def); err != nil {
		panic(err)
	}
}
