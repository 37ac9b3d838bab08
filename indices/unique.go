package indices

import (
	"github.com/hashicorp/go-memdb"
	"github.com/ridge/chamber/meta"
)

type uniqueIndexDef struct {
	Definition
}

// UniquifyIndex makes an index unique
func UniquifyIndex(def Definition) Definition {
	return uniqueIndexDef{Definition: def}
}

func (uid uniqueIndexDef) Index(s meta.Struct) *memdb.IndexSchema {
	schema := *uid.Definition.Index(s)
	schema.Unique = true
	return &schema
}
