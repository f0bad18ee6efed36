package engine

import (
	"sort"
	"strings"
)

// Engine compiles and evaluates rules. The zero configuration accepts any
// attribute name; WithAttributes restricts it to an allow-list.
// An Engine is immutable after New and safe for concurrent use.
type Engine struct {
	attributes map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithAttributes restricts compiled rules to the given attribute names.
// Blank names are ignored; an empty list leaves the engine unrestricted.
func WithAttributes(names ...string) Option {
	return func(e *Engine) {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if e.attributes == nil {
				e.attributes = make(map[string]struct{})
			}
			e.attributes[name] = struct{}{}
		}
	}
}

// New creates an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Attributes returns the sorted allow-list, or nil when unrestricted.
func (e *Engine) Attributes() []string {
	if len(e.attributes) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.attributes))
	for name := range e.attributes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) allows(attribute string) bool {
	if len(e.attributes) == 0 {
		return true
	}
	_, ok := e.attributes[attribute]
	return ok
}

var defaultEngine = New()
