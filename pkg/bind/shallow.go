package bind

import (
	"reflect"

	"github.com/msig-dev/msig/pkg/reactive"
)

// Shallow reports whether a and b are identical or hold identical entries one
// level deep. Maps compare by key set, structs and pointers to structs by
// field, slices and arrays by element. Entries compare by identity.
func Shallow[T any](a, b T) bool {
	if reactive.Identical(a, b) {
		return true
	}
	return shallowValues(reflect.ValueOf(&a).Elem(), reflect.ValueOf(&b).Elem())
}

func shallowValues(va, vb reflect.Value) bool {
	if va.Kind() == reflect.Interface {
		if va.IsNil() || vb.IsNil() {
			return false
		}
		va, vb = va.Elem(), vb.Elem()
		if va.Type() != vb.Type() {
			return false
		}
		if reactive.IdenticalValues(va, vb) {
			return true
		}
	}

	if va.Kind() == reflect.Pointer {
		if va.IsNil() || vb.IsNil() || va.Elem().Kind() != reflect.Struct {
			return false
		}
		va, vb = va.Elem(), vb.Elem()
	}

	switch va.Kind() {
	case reflect.Map:
		if va.IsNil() || vb.IsNil() || va.Len() != vb.Len() {
			return false
		}
		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(iter.Key())
			if !other.IsValid() || !reactive.IdenticalValues(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !reactive.IdenticalValues(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Slice:
		if va.IsNil() || vb.IsNil() {
			return false
		}
		fallthrough
	case reflect.Array:
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !reactive.IdenticalValues(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	}
	return false
}
