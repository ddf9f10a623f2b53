// Package strategy provides the generic holder behind every pipeline
// context: a Context owns exactly one active strategy and never the data.
package strategy

import (
	"reflect"

	"github.com/YuminosukeSato/regpipe/pkg/errors"
)

// Context holds the active strategy of type S.
type Context[S any] struct {
	active S
	set    bool
}

// New creates a Context with s active.
func New[S any](s S) *Context[S] {
	c := &Context[S]{}
	c.SetStrategy(s)
	return c
}

// SetStrategy replaces the active strategy. Results produced by the previous
// strategy are unaffected.
func (c *Context[S]) SetStrategy(s S) {
	c.active = s
	c.set = !isNil(s)
}

// Strategy returns the active strategy, or a ConfigError when none was set.
func (c *Context[S]) Strategy() (S, error) {
	if c == nil || !c.set {
		var zero S
		return zero, errors.NewConfigError("Context.Strategy", "strategy", "no strategy has been set")
	}
	return c.active, nil
}

// Name returns the dynamic type name of the active strategy, or "" when
// none is set. Contexts use it for log attributes.
func (c *Context[S]) Name() string {
	if c == nil || !c.set {
		return ""
	}
	t := reflect.TypeOf(c.active)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
