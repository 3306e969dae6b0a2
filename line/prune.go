// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import "reflect"

// IsEmpty reports whether v carries no information: nil, a zero length string,
// slice, array or map, or a nil pointer or interface.  Numbers and booleans are
// never empty, so 0 and false survive Prune.
func IsEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Prune removes every entry of m whose value IsEmpty, recursing into nested
// maps first so a map that only held empty values is removed from its parent
// as well.  m is modified in place and returned.
func Prune(m map[string]interface{}) map[string]interface{} {
	for k, v := range m {
		switch nested := v.(type) {
		case map[string]interface{}:
			Prune(nested)
		case ClaimSet:
			Prune(nested)
		}
		if IsEmpty(v) {
			delete(m, k)
		}
	}
	return m
}
