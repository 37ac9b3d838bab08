package typeddb

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-memdb"
	"github.com/ridge/chamber/indices"
	"github.com/ridge/chamber/meta"
)

// Kind describes a table of records of one struct type.
// All fields are read-only.
type Kind struct {
	meta.Struct
	Indices     map[string]indices.Definition
	identity    indices.Definition
	indexSchema map[string]*memdb.IndexSchema
}

// KindOf creates a Kind for a given struct example and index definitions
func KindOf(example any, indexDefs ...indices.Definition) *Kind {
	metaStruct := meta.Survey(reflect.TypeOf(example))
	identity := indices.IdentityIndex()
	kind := &Kind{
		Struct:   metaStruct,
		Indices:  map[string]indices.Definition{},
		identity: identity,
		indexSchema: map[string]*memdb.IndexSchema{
			identity.Name(): identity.Index(metaStruct),
		},
	}
	for _, def := range indexDefs {
		name := def.Name()
		if kind.indexSchema[name] != nil {
			panic(fmt.Sprintf("duplicate index name on %s: %s", metaStruct, name))
		}
		kind.Indices[name] = def
		kind.indexSchema[name] = def.Index(metaStruct)
	}
	return kind
}

// IdentityIndex returns the implicit unique index on the identity field
func (k *Kind) IdentityIndex() indices.Definition {
	return k.identity
}

// IDOf returns the identity of a record given by value or pointer
func (k *Kind) IDOf(obj any) string {
	v := reflect.Indirect(reflect.ValueOf(obj))
	if v.Type() != k.Type {
		panic(fmt.Sprintf("%s expected, got %T", k.Type, obj))
	}
	return v.FieldByIndex(k.Identity().Index).String()
}
