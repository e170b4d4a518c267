package extstr

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Func is a function that can be chained on a String. It receives the text of
// the receiver followed by the call arguments.
type Func func(text string, args ...any) (any, error)

// Method is a Func bound to a particular String.
type Method func(args ...any) (any, error)

// Registry maps names to chainable functions. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// DefaultRegistry is consulted by String.Get and String.Call.
// Other packages add their own functions to it from init.
var DefaultRegistry = newDefaultRegistry()

// Register adds fn under name, replacing any previous entry.
func (r *Registry) Register(name string, fn Func) {
	if name == "" || fn == nil {
		panic("extstr: Register requires a name and a function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Unregister removes name from the registry. Missing names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.funcs, name)
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get resolves name against s using DefaultRegistry. See GetWith.
func (s String) Get(name string) (any, error) {
	return s.GetWith(DefaultRegistry, name)
}

// GetWith resolves name against s.
//
// Attached attributes win. Otherwise, when reg has a function called name, a
// Method bound to s is returned. Otherwise the result is an *AttributeError.
func (s String) GetWith(reg *Registry, name string) (any, error) {
	if v, ok := s.attrs[name]; ok {
		return v, nil
	}
	if reg != nil {
		if fn, ok := reg.Lookup(name); ok {
			return s.bind(fn), nil
		}
	}
	return nil, &AttributeError{Type: "String", Name: name}
}

// Call invokes the function registered under name in DefaultRegistry with s
// as its first argument. See CallWith.
func (s String) Call(name string, args ...any) (any, error) {
	return s.CallWith(DefaultRegistry, name, args...)
}

// CallWith invokes the function registered under name in reg with s as its
// first argument.
//
// A plain string result is wrapped into a new String without attributes; the
// attributes of s are not carried over. Other results are returned unchanged.
// An attached attribute that is itself a Method or Func is called as well.
func (s String) CallWith(reg *Registry, name string, args ...any) (any, error) {
	v, err := s.GetWith(reg, name)
	if err != nil {
		return nil, err
	}
	switch fn := v.(type) {
	case Method:
		return fn(args...)
	case Func:
		return s.bind(fn)(args...)
	case func(args ...any) (any, error):
		return Method(fn)(args...)
	default:
		return nil, fmt.Errorf("extstr: attribute '%s' of type %T is not callable", name, v)
	}
}

func (s String) bind(fn Func) Method {
	return func(args ...any) (any, error) {
		res, err := fn(s.text, args...)
		if err != nil {
			return nil, err
		}
		if text, ok := res.(string); ok {
			return New(text, nil), nil
		}
		return res, nil
	}
}

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	title := cases.Title(language.Und)

	r.Register("upper", func(text string, _ ...any) (any, error) {
		return strings.ToUpper(text), nil
	})
	r.Register("lower", func(text string, _ ...any) (any, error) {
		return strings.ToLower(text), nil
	})
	r.Register("title", func(text string, _ ...any) (any, error) {
		return title.String(text), nil
	})
	trim := func(text string, args ...any) (any, error) {
		if len(args) == 0 {
			return strings.TrimSpace(text), nil
		}
		cutset, err := StringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return strings.Trim(text, cutset), nil
	}
	r.Register("strip", trim)
	r.Register("trim", trim)
	r.Register("replace", func(text string, args ...any) (any, error) {
		oldS, err := StringArg(args, 0)
		if err != nil {
			return nil, err
		}
		newS, err := StringArg(args, 1)
		if err != nil {
			return nil, err
		}
		n := -1
		if len(args) > 2 {
			if n, err = IntArg(args, 2); err != nil {
				return nil, err
			}
		}
		return strings.Replace(text, oldS, newS, n), nil
	})
	r.Register("split", func(text string, args ...any) (any, error) {
		if len(args) == 0 {
			return strings.Fields(text), nil
		}
		sep, err := StringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return strings.Split(text, sep), nil
	})
	r.Register("len", func(text string, _ ...any) (any, error) {
		return len(text), nil
	})
	r.Register("contains", func(text string, args ...any) (any, error) {
		sub, err := StringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return strings.Contains(text, sub), nil
	})
	r.Register("startswith", func(text string, args ...any) (any, error) {
		prefix, err := StringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return strings.HasPrefix(text, prefix), nil
	})
	r.Register("endswith", func(text string, args ...any) (any, error) {
		suffix, err := StringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return strings.HasSuffix(text, suffix), nil
	})
	r.Register("repeat", func(text string, args ...any) (any, error) {
		n, err := IntArg(args, 0)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("extstr: repeat count must not be negative, got %d", n)
		}
		return strings.Repeat(text, n), nil
	})
	r.Register("lines", func(text string, _ ...any) (any, error) {
		return slices.Collect(strings.Lines(text)), nil
	})
	return r
}

// StringArg returns args[i] as a string. fmt.Stringer values are accepted.
func StringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("extstr: missing argument %d", i)
	}
	switch v := args[i].(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("extstr: argument %d must be a string, got %T", i, args[i])
	}
}

// IntArg returns args[i] as an int.
func IntArg(args []any, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("extstr: missing argument %d", i)
	}
	switch v := args[i].(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("extstr: argument %d must be an integer, got %T", i, args[i])
	}
}
