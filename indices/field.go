package indices

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/go-memdb"
	"github.com/ridge/chamber/meta"
)

type fieldIndexDef struct {
	name       string
	skipZeros  bool
	ignoreCase bool
}

// FieldIndex specifies an index on a single field of an indexable type or a
// pointer to one. A nil pointer keeps the record out of the index.
func FieldIndex(name string, options ...fieldIndexOption) Definition {
	fi := fieldIndexDef{name: name}
	for _, opt := range options {
		opt.apply(&fi)
	}
	return fi
}

type fieldIndexOption interface {
	apply(fi *fieldIndexDef)
}

// SkipZeros is an option to FieldIndex that leaves records with a zero field
// value (or a pointer to one) out of the index.
var SkipZeros skipZeros

type skipZeros struct{}

func (skipZeros) apply(fi *fieldIndexDef) {
	fi.skipZeros = true
}

// IgnoreCase is an option to FieldIndex that lowercases string-based keys, so
// that values differing only in case match each other (and conflict in a
// unique index).
var IgnoreCase ignoreCase

type ignoreCase struct{}

func (ignoreCase) apply(fi *fieldIndexDef) {
	fi.ignoreCase = true
}

func (fid fieldIndexDef) Name() string {
	return fid.name
}

func (fid fieldIndexDef) Args() int {
	return 1
}

func (fid fieldIndexDef) Index(s meta.Struct) *memdb.IndexSchema {
	field, ok := s.Field(fid.name)
	if !ok {
		panic(fmt.Errorf("field %s.%s not found", s.Type, fid.name))
	}
	t := field.Type
	switch t.Kind() {
	case reflect.Slice, reflect.Map:
		panic(fmt.Errorf("field %s.%s: collections cannot be indexed", s.Type, fid.name))
	case reflect.Ptr:
		t = t.Elem()
	}
	keyFn := keyFnForType(t)
	if keyFn == nil {
		panic(fmt.Errorf("field %s.%s has unsupported type %s", s.Type, fid.name, field.Type))
	}
	if fid.ignoreCase {
		if t.Kind() != reflect.String {
			panic(fmt.Errorf("field %s.%s must be string-based for case-insensitive indexing", s.Type, fid.name))
		}
		keyFn = func(v reflect.Value) ([]byte, bool) {
			s := v.String()
			return []byte(strings.ToLower(s) + "\x00"), s != ""
		}
	}
	indexer := fieldIndexer{def: fid, t: t, index: field.Index, keyFn: keyFn}
	schema := memdb.IndexSchema{
		Name:         fid.Name(),
		AllowMissing: fid.skipZeros,
		Indexer:      indexer,
	}
	if field.Type.Kind() == reflect.Ptr {
		schema.AllowMissing = true
		schema.Indexer = ptrFieldIndexer{indexer}
	}
	return &schema
}

type fieldIndexer struct {
	def   fieldIndexDef
	t     reflect.Type
	index []int
	keyFn keyFn
}

func (fi fieldIndexer) FromArgs(args ...any) ([]byte, error) {
	v := reflect.ValueOf(args[0])
	if v.Type() != fi.t {
		return nil, fmt.Errorf("index %s expects %s value", fi.def.Name(), fi.t)
	}
	k, _ := fi.keyFn(v)
	return k, nil
}

func (fi fieldIndexer) FromObject(obj any) (bool, []byte, error) {
	v := reflect.ValueOf(obj).FieldByIndex(fi.index)
	k, ok := fi.keyFn(v)
	if !ok && fi.def.skipZeros {
		return false, nil, nil
	}
	return true, k, nil
}

type ptrFieldIndexer struct {
	fieldIndexer
}

func (pfi ptrFieldIndexer) FromObject(obj any) (bool, []byte, error) {
	v := reflect.ValueOf(obj).FieldByIndex(pfi.index)
	if v.IsNil() {
		return false, nil, nil
	}
	k, ok := pfi.keyFn(v.Elem())
	if !ok && pfi.def.skipZeros {
		return false, nil, nil
	}
	return true, k, nil
}
