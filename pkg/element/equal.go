package element

import "reflect"

// Same reports whether a and b are the same value: == for comparable values,
// pointer identity for funcs, maps, slices and channels.
func Same(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice, reflect.Chan:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		if ta.Kind() == reflect.Slice && va.Len() != vb.Len() {
			return false
		}
		return va.Pointer() == vb.Pointer()
	}
	if !ta.Comparable() {
		return false
	}
	// Structs with interface fields may still hold incomparable values.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// ShallowEqual reports whether next and prev hold the same props.
// Every key except key and children is compared with Same. Children are
// compared slot by slot; a length mismatch is a difference.
func ShallowEqual(next, prev Props) bool {
	for k, v := range next {
		if k == KeyProp || k == ChildrenProp {
			continue
		}
		pv, ok := prev[k]
		if !ok || !Same(v, pv) {
			return false
		}
	}
	for k := range prev {
		if k == KeyProp || k == ChildrenProp {
			continue
		}
		if _, ok := next[k]; !ok {
			return false
		}
	}

	nc, pc := next.Children(), prev.Children()
	if len(nc) != len(pc) {
		return false
	}
	for i := range nc {
		if !Same(nc[i], pc[i]) {
			return false
		}
	}
	return true
}
