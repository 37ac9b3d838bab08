package indices

import (
	"encoding/binary"
	"reflect"
	"time"
)

// A keyFn serializes a type to a sortable byte sequence
type keyFn func(reflect.Value) ([]byte, bool)

// IndexKey makes a type indexable
type IndexKey interface {
	IndexKey() ([]byte, bool)
}

var indexKeyInterface = reflect.TypeOf((*IndexKey)(nil)).Elem()

var timeType = reflect.TypeOf(time.Time{})

var unixSecondsOffset = time.Time{}.Unix()

func keyFnForType(t reflect.Type) keyFn {
	if t.Implements(indexKeyInterface) {
		return func(v reflect.Value) ([]byte, bool) {
			return v.Interface().(IndexKey).IndexKey()
		}
	}
	if t == timeType {
		return func(v reflect.Value) ([]byte, bool) {
			// seconds since time.Time{} followed by nanoseconds, so that
			// the zero time encodes as all zeros
			b := make([]byte, 12)
			t := v.Interface().(time.Time)
			binary.BigEndian.PutUint64(b[:8], uint64(t.Unix()-unixSecondsOffset))
			binary.BigEndian.PutUint32(b[8:], uint32(t.Nanosecond()))
			return b, !t.IsZero()
		}
	}
	switch t.Kind() {
	case reflect.Bool:
		return func(v reflect.Value) ([]byte, bool) {
			if v.Bool() {
				return []byte{1}, true
			}
			return []byte{0}, false
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		offset := 8 - t.Size()
		return func(v reflect.Value) ([]byte, bool) {
			var b [8]byte
			n := v.Uint()
			binary.BigEndian.PutUint64(b[:], n)
			return b[offset:], n != 0
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		offset := 8 - t.Size()
		return func(v reflect.Value) ([]byte, bool) {
			var b [8]byte
			n := v.Int()
			binary.BigEndian.PutUint64(b[:], uint64(n))
			// inverting the sign bit makes the serializations sort naturally
			b[offset] ^= 0x80
			return b[offset:], n != 0
		}
	case reflect.String:
		return func(v reflect.Value) ([]byte, bool) {
			s := v.String()
			return []byte(s + "\x00"), s != ""
		}
	default:
		return nil
	}
}
