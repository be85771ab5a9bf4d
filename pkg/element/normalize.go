package element

import (
	"fmt"
	"reflect"
)

// maxFlattenDepth bounds how many levels of nested slices are flattened.
const maxFlattenDepth = 3

// Normalize converts a render result or a children entry into a flat list of
// elements. Nested slices are flattened up to three levels; deeper slices are
// rendered as text. nil, false and "" become comment placeholders so they keep
// their positional slot; other scalars become text elements.
func Normalize(children any) []*Element {
	var out []*Element
	if isSlice(children) {
		flatten(children, 0, &out)
		return out
	}
	out = append(out, toElement(children))
	return out
}

func flatten(v any, depth int, out *[]*Element) {
	rv := reflect.ValueOf(v)
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		if isSlice(item) && depth < maxFlattenDepth {
			flatten(item, depth+1, out)
			continue
		}
		*out = append(*out, toElement(item))
	}
}

func toElement(v any) *Element {
	switch c := v.(type) {
	case *Element:
		if c == nil {
			return Comment("nil")
		}
		return c
	case Element:
		return &c
	case nil:
		return Comment("nil")
	case bool:
		if !c {
			return Comment("false")
		}
	case string:
		if c == "" {
			return Comment("empty-string")
		}
		return Text(c)
	}
	return Text(fmt.Sprint(v))
}

func isSlice(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case []byte, string:
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}
