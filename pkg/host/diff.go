package host

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/arbor/pkg/element"
)

// Delta is the classified difference between two prop sets. An empty string
// value in Attrs, Styles or Class means "remove"; a nil handler in Events
// means "detach".
type Delta struct {
	// Text is set for #text and #comment nodes when their content changed.
	Text        string
	TextChanged bool

	Class        string
	ClassChanged bool

	Styles map[string]string
	Attrs  map[string]string
	Events map[string]any
}

// Empty reports whether the delta carries no change.
func (d Delta) Empty() bool {
	return !d.TextChanged && !d.ClassChanged &&
		len(d.Styles) == 0 && len(d.Attrs) == 0 && len(d.Events) == 0
}

// AttrNames returns the changed attribute names in sorted order.
func (d Delta) AttrNames() []string {
	return sortedKeys(d.Attrs)
}

// StyleNames returns the changed style properties in sorted order.
func (d Delta) StyleNames() []string {
	return sortedKeys(d.Styles)
}

// EventNames returns the changed event names in sorted order.
func (d Delta) EventNames() []string {
	names := make([]string, 0, len(d.Events))
	for k := range d.Events {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Diff classifies the changes from prev to next. style is a nested mapping
// diffed per property, class is a string (or string slice), keys starting with
// "on" are event handlers, and ref, key and children are ignored. Everything
// else is a generic attribute.
func Diff(next, prev element.Props) Delta {
	var d Delta

	if _, ok := next[element.TextContentProp]; ok {
		nt := FormatValue(next[element.TextContentProp])
		if prev == nil || nt != FormatValue(prev[element.TextContentProp]) {
			d.Text, d.TextChanged = nt, true
		}
	}

	nc, pc := classValue(next["class"]), classValue(prev["class"])
	if nc != pc {
		d.Class, d.ClassChanged = nc, true
	}

	ns, ps := styleValue(next["style"]), styleValue(prev["style"])
	for k := range ps {
		if _, ok := ns[k]; !ok {
			d.setStyle(k, "")
		}
	}
	for k, v := range ns {
		if pv, ok := ps[k]; !ok || pv != v {
			d.setStyle(k, v)
		}
	}

	for k := range prev {
		if isReserved(k) {
			continue
		}
		if _, ok := next[k]; ok {
			continue
		}
		if IsEvent(k) {
			d.setEvent(EventName(k), nil)
		} else {
			d.setAttr(k, "")
		}
	}
	for k, v := range next {
		if isReserved(k) {
			continue
		}
		pv, had := prev[k]
		if IsEvent(k) {
			if !had || !element.Same(v, pv) {
				d.setEvent(EventName(k), v)
			}
			continue
		}
		s := FormatValue(v)
		if !had || s != FormatValue(pv) {
			d.setAttr(k, s)
		}
	}

	return d
}

func (d *Delta) setStyle(k, v string) {
	if d.Styles == nil {
		d.Styles = make(map[string]string)
	}
	d.Styles[KebabCase(k)] = v
}

func (d *Delta) setAttr(k, v string) {
	if d.Attrs == nil {
		d.Attrs = make(map[string]string)
	}
	d.Attrs[k] = v
}

func (d *Delta) setEvent(k string, v any) {
	if d.Events == nil {
		d.Events = make(map[string]any)
	}
	d.Events[k] = v
}

func isReserved(key string) bool {
	switch key {
	case element.KeyProp, element.RefProp, element.ChildrenProp, element.TextContentProp, "class", "style":
		return true
	}
	return false
}

// IsEvent reports whether key names an event handler (onClick, onclick).
func IsEvent(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// EventName converts an event prop key to its lower-case event name:
// "onClick" becomes "click".
func EventName(key string) string {
	return strings.ToLower(key[2:])
}

// FormatValue converts a prop value to its attribute string. nil and false
// format as the empty string, which hosts treat as removal.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return ""
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// KebabCase converts a camelCase style property to kebab-case:
// "backgroundColor" becomes "background-color".
func KebabCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func classValue(v any) string {
	switch c := v.(type) {
	case []string:
		parts := c[:0:0]
		for _, s := range c {
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return FormatValue(v)
	}
}

func styleValue(v any) map[string]string {
	out := make(map[string]string)
	switch s := v.(type) {
	case map[string]string:
		for k, val := range s {
			if val != "" {
				out[k] = val
			}
		}
	case map[string]any:
		for k, val := range s {
			if str := FormatValue(val); str != "" {
				out[k] = str
			}
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
