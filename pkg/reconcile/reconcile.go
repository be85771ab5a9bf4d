package reconcile

import (
	"fmt"
	"strings"

	"github.com/vango-dev/arbor/pkg/element"
)

// reconcileChildren matches next against parent's current children and
// relinks parent's child chain in the order of next. Children that are not
// reused are queued on parent.deletions for the next commit.
func (r *Root) reconcileChildren(parent *Instance, next []*element.Element) {
	var old []*Instance
	lookup := make(map[any]*Instance)
	for c := parent.child; c != nil; c = c.sibling {
		lookup[lookupKey(c.element, len(old))] = c
		old = append(old, c)
	}

	claimed := make(map[*Instance]struct{}, len(next))
	var first, prev *Instance
	for i, el := range next {
		if el.InvalidKey() {
			r.logger.Warn("ignoring key that is not comparable",
				"code", "E004",
				"element", el.String(),
				"key_type", fmt.Sprintf("%T", el.Props[element.KeyProp]))
		}
		key := lookupKey(el, i)

		var inst *Instance
		if cand, ok := lookup[key]; ok && r.plugins.shouldReuse(cand, el) {
			delete(lookup, key)
			claimed[cand] = struct{}{}
			inst = r.reuse(parent, cand, el)
		} else {
			inst = r.newInstance(parent, el)
		}

		if prev == nil {
			first = inst
		} else {
			prev.sibling = inst
		}
		prev = inst
	}
	if prev != nil {
		prev.sibling = nil
	}

	parent.child = first

	for _, c := range old {
		if _, ok := claimed[c]; !ok {
			parent.deletions = append(parent.deletions, c)
		}
	}
}

// reuse moves cand to el and decides whether it must re-render.
func (r *Root) reuse(parent *Instance, cand *Instance, el *element.Element) *Instance {
	cand.beforeElement = cand.element
	cand.element = el
	cand.setProps(el.Props)
	cand.namespace = r.namespaceFor(parent, el)

	if el.IsComponent() && (parent.requiredUpdate || r.plugins.shouldRerender(cand)) {
		cand.requiredUpdate = true
	}
	return cand
}

// namespaceFor returns the namespace an instance for el under parent
// inherits. An xmlns prop starts a new namespace; foreignObject resets it for
// its children.
func (r *Root) namespaceFor(parent *Instance, el *element.Element) string {
	ns := ""
	if parent != nil {
		ns = parent.namespace
		if parent.element != nil && parent.element.Tag == "foreignObject" {
			ns = ""
		}
	}
	if el.IsComponent() {
		return ns
	}

	if x, ok := el.Props[element.XMLNSProp].(string); ok && x != "" {
		ns = x
	}
	for k := range el.Props {
		if strings.HasPrefix(k, element.XMLNSProp+":") {
			r.logger.Warn("prefixed namespace attribute ignored", "element", el.String(), "attribute", k)
		}
	}
	return ns
}
