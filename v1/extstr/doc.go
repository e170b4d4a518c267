// Package extstr provides String, a text value that carries named attributes.
//
// API results (search hits, model responses) are usually consumed as text, but
// they come with structured data such as ids, distances or token usage. String
// keeps both: it prints, compares and marshals as its text, and exposes the
// structured part through Attr, AttrAs and Attrs.
//
// # Attributes
//
//	hit := extstr.New("hello", map[string]any{"id": "x1", "distance": 0.2})
//	hit.Equal("hello")            // true
//	id, _ := hit.Attr("id")       // "x1"
//	d, _ := extstr.AttrAs[float64](hit, "distance")
//
// # Chaining
//
// Functions registered in a Registry can be called on a String by name. The
// receiver's text becomes the first argument; string results come back as a
// new String, so calls can be chained:
//
//	out, err := hit.Call("upper")          // String("HELLO"), no attributes
//	out, err = out.(extstr.String).Call("replace", "L", "_")
//
// DefaultRegistry ships with basic text functions (upper, lower, title, strip,
// replace, split, len, contains, startswith, endswith, repeat, lines). Other
// packages register their own; the answer package adds extract_number,
// parse_json and parse.
//
// Looking up a name that is neither an attribute nor a registered function
// returns an *AttributeError naming it, which matches ErrAttributeNotFound
// under errors.Is.
package extstr
