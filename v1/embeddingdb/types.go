package embeddingdb

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Document is a unit of text stored in a collection.
type Document struct {
	// ID is optional. Backends assign a fresh UUID when it is empty; a known
	// ID turns the save into an upsert of that document.
	ID string

	// Text is the content that gets embedded and returned by searches.
	Text string

	// Metadata is free-form data used for filtering. nil is stored as empty.
	Metadata map[string]any
}

// Doc builds a Document from text and optional metadata.
func Doc(text string, metadata map[string]any) Document {
	return Document{Text: text, Metadata: metadata}
}

// Docs builds metadata-free Documents from bare texts.
func Docs(texts ...string) []Document {
	out := make([]Document, len(texts))
	for i, t := range texts {
		out[i] = Document{Text: t}
	}
	return out
}

// Query is one or more query texts.
type Query []string

// Text returns a single-text query.
func Text(q string) Query {
	return Query{q}
}

// Texts returns a batch query.
func Texts(qs ...string) Query {
	return Query(qs)
}

// Where is a metadata filter. A document matches when every key is present in
// its metadata with an equal value. Numbers compare by value regardless of
// their Go type. An empty Where matches every document.
type Where map[string]any

// Matches reports whether metadata satisfies w.
func (w Where) Matches(metadata map[string]any) bool {
	for key, want := range w {
		got, ok := metadata[key]
		if !ok || !ValuesEqual(got, want) {
			return false
		}
	}
	return true
}

// ValuesEqual compares two metadata values. Numeric values of any kind compare
// by value; everything else uses reflect.DeepEqual.
func ValuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Selector picks the documents Delete removes: either a set of ids or a
// metadata filter.
type Selector struct {
	IDs   []string
	Where Where
}

// ByID selects a single document.
func ByID(id string) Selector {
	return Selector{IDs: []string{id}}
}

// ByIDs selects documents by id.
func ByIDs(ids ...string) Selector {
	return Selector{IDs: ids}
}

// ByWhere selects documents whose metadata matches where.
func ByWhere(where Where) Selector {
	return Selector{Where: where}
}

// Validate rejects selectors that name nothing or both ids and a filter.
func (s Selector) Validate() error {
	switch {
	case len(s.IDs) == 0 && len(s.Where) == 0:
		return fmt.Errorf("%w: selector needs ids or a where filter", ErrInvalidArgument)
	case len(s.IDs) > 0 && len(s.Where) > 0:
		return fmt.Errorf("%w: selector cannot combine ids and a where filter", ErrInvalidArgument)
	}
	return nil
}

// ValidateCollection rejects empty collection names.
func ValidateCollection(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidArgument)
	}
	return nil
}

// ValidateQuery rejects queries without any text.
func ValidateQuery(q Query) error {
	if len(q) == 0 {
		return fmt.Errorf("%w: query needs at least one text", ErrInvalidArgument)
	}
	return nil
}
