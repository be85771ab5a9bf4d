package element

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/arbor/pkg/reactive"
)

// Reserved primitive tags. Their content lives in the TextContent prop.
const (
	TextTag    = "#text"
	CommentTag = "#comment"
)

// Reserved prop names.
const (
	KeyProp         = "key"
	RefProp         = "ref"
	ChildrenProp    = "children"
	TextContentProp = "textContent"
	XMLNSProp       = "xmlns"
)

// Props is the string-keyed property mapping of an element.
type Props map[string]any

// Children returns the children entry as a slice. A missing or scalar entry
// yields a one-element or empty slice.
func (p Props) Children() []any {
	switch c := p[ChildrenProp].(type) {
	case nil:
		return nil
	case []any:
		return c
	default:
		return []any{c}
	}
}

// Clone returns a shallow copy of p.
func (p Props) Clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Render is the closure a component returns from setup. It is re-invoked on
// every update and returns the component's children.
type Render func() any

// Hooks is the render-scoped API handed to a component's setup function.
// Every method panics when called after setup has returned.
type Hooks interface {
	// OnMounted registers fn to run after the instance's subtree is attached.
	// A non-nil return value runs as a cleanup when the instance unmounts.
	OnMounted(fn func() func())

	// OnUnmounted registers fn to run when the instance is torn down.
	OnUnmounted(fn func())

	// Provide publishes value under key to all descendants and returns an
	// updater for later writes.
	Provide(key, value any) func(any)

	// Inject resolves key against the nearest providing ancestor. The returned
	// ref holds nil when no ancestor provides key.
	Inject(key any) *reactive.Ref[any]
}

// Component is a named component definition. Two elements have the same type
// when they point at the same *Component.
type Component struct {
	Name  string
	Setup func(h Hooks, props Props) Render
}

// Define creates a component definition.
func Define(name string, setup func(h Hooks, props Props) Render) *Component {
	return &Component{Name: name, Setup: setup}
}

func (c *Component) String() string {
	if c == nil {
		return "<nil component>"
	}
	return c.Name
}

// Fragment renders its children without a host node of its own.
var Fragment = Define("Fragment", func(_ Hooks, props Props) Render {
	return func() any {
		return props[ChildrenProp]
	}
})

// Element is an immutable description of one tree position.
// Exactly one of Tag and Component is set.
type Element struct {
	Tag       string
	Component *Component
	Props     Props
}

// New creates an element. typ is a tag name or a *Component. props is copied,
// and children, when given, replace any children entry in props. The result
// always carries a children entry.
func New(typ any, props Props, children ...any) *Element {
	p := make(Props, len(props)+1)
	for k, v := range props {
		p[k] = v
	}
	if len(children) > 0 {
		p[ChildrenProp] = children
	} else {
		p[ChildrenProp] = p.Children()
	}
	if p[ChildrenProp] == nil {
		p[ChildrenProp] = []any{}
	}

	el := &Element{Props: p}
	switch t := typ.(type) {
	case string:
		el.Tag = t
	case *Component:
		el.Component = t
	default:
		panic(fmt.Sprintf("element: unsupported element type %T", typ))
	}
	return el
}

// Text creates a text element.
func Text(content string) *Element {
	return New(TextTag, Props{TextContentProp: content})
}

// Comment creates a comment placeholder element.
func Comment(content string) *Element {
	return New(CommentTag, Props{TextContentProp: content})
}

// IsComponent reports whether e describes a component instance.
func (e *Element) IsComponent() bool {
	return e != nil && e.Component != nil
}

// Type returns the tag name or the component definition.
func (e *Element) Type() any {
	if e.Component != nil {
		return e.Component
	}
	return e.Tag
}

// Key returns the explicit key, if any. Keys must be comparable; a slice,
// map or func key is reported as absent and the element matches by
// position. InvalidKey reports that case.
func (e *Element) Key() (any, bool) {
	if e == nil {
		return nil, false
	}
	k, ok := e.Props[KeyProp]
	if !ok || k == nil || !hashable(k) {
		return nil, false
	}
	return k, true
}

// InvalidKey reports whether e carries a key that cannot be compared.
func (e *Element) InvalidKey() bool {
	if e == nil {
		return false
	}
	k, ok := e.Props[KeyProp]
	return ok && k != nil && !hashable(k)
}

// hashable reports whether k can be used as a map key. Structs and arrays
// may hold interface fields, so those are checked by comparing.
func hashable(k any) (ok bool) {
	t := reflect.TypeOf(k)
	if !t.Comparable() {
		return false
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Array, reflect.Interface:
	default:
		return true
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[any]struct{}{k: {}}
	return true
}

// Children returns the raw children entry.
func (e *Element) Children() []any {
	return e.Props.Children()
}

// TextContent returns the content of a #text or #comment element.
func (e *Element) TextContent() string {
	s, _ := e.Props[TextContentProp].(string)
	return s
}

// SameType reports whether a and b have the same element type.
func SameType(a, b *Element) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Component != nil || b.Component != nil {
		return a.Component == b.Component
	}
	return a.Tag == b.Tag
}

func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	name := e.Tag
	if e.Component != nil {
		name = e.Component.Name
	}
	if k, ok := e.Key(); ok {
		return fmt.Sprintf("<%s key=%v>", name, k)
	}
	return "<" + name + ">"
}
