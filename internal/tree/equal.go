package tree

import "reflect"

// ShallowEqual reports whether a and b are equal one level deep.
func ShallowEqual(a, b any) bool {
	ra, aok := AsTree(a)
	rb, bok := AsTree(b)
	if aok && bok {
		if len(ra) != len(rb) {
			return false
		}
		for k, av := range ra {
			bv, ok := rb[k]
			if !ok || !identical(av, bv) {
				return false
			}
		}
		return true
	}
	return identical(a, b)
}

func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Slice:
		if va.Len() != vb.Len() {
			return false
		}
		if va.Len() == 0 {
			return true
		}
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Pointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Func:
		return false
	}
	return safeEqual(a, b)
}

// safeEqual compares with ==, treating values whose dynamic contents are not
// comparable as different.
func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
