package changes

import (
	"reflect"
)

var boolType = reflect.TypeOf(true)

// Equal compares field values by content. A type with a method
// Equal(T) bool is compared with that method (time.Time, decimals), any other
// type with reflect.DeepEqual.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if m := va.MethodByName("Equal"); m.IsValid() {
		mt := m.Type()
		if mt.NumIn() == 1 && mt.In(0) == va.Type() && mt.NumOut() == 1 && mt.Out(0) == boolType {
			return m.Call([]reflect.Value{vb})[0].Bool()
		}
	}
	return reflect.DeepEqual(a, b)
}

func isZero(v any) bool {
	return v == nil || reflect.ValueOf(v).IsZero()
}

// Copy returns a deep copy of a field value, so that later in-place changes
// of slices, maps or pointed-to values do not leak into a captured baseline.
// A type with a method Clone() T is copied with that method.
func Copy(v any) any {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v)).Interface()
}

func deepCopy(v reflect.Value) reflect.Value {
	t := v.Type()
	if m := v.MethodByName("Clone"); m.IsValid() && m.Type().NumIn() == 0 &&
		m.Type().NumOut() == 1 && m.Type().Out(0) == t {
		if t.Kind() != reflect.Ptr || !v.IsNil() {
			return m.Call(nil)[0]
		}
	}

	switch t.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		res := reflect.New(t.Elem())
		res.Elem().Set(deepCopy(v.Elem()))
		return res
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		res := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			res.Index(i).Set(deepCopy(v.Index(i)))
		}
		return res
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		res := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			res.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return res
	case reflect.Array:
		res := reflect.New(t).Elem()
		for i := 0; i < v.Len(); i++ {
			res.Index(i).Set(deepCopy(v.Index(i)))
		}
		return res
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		res := reflect.New(t).Elem()
		res.Set(deepCopy(v.Elem()))
		return res
	case reflect.Struct:
		res := reflect.New(t).Elem()
		res.Set(v) // copies unexported fields as they are
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				res.Field(i).Set(deepCopy(v.Field(i)))
			}
		}
		return res
	default:
		return v
	}
}
