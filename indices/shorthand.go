package indices

import (
	"fmt"
	"regexp"
	"strings"
)

var tokenRx = regexp.MustCompile(`^([A-Z][A-Za-z0-9_]*)(!)?$`)

// Index is a shorthand for field and compound indices. The description lists
// space-separated field names; a trailing "!" leaves records with a zero value
// of that field out of the index.
//
//	Index("Name")           => FieldIndex("Name")
//	Index("Name Number!")   => CompoundIndex(FieldIndex("Name"), FieldIndex("Number", SkipZeros))
func Index(def string) Definition {
	var defs []Definition
	for _, token := range strings.Fields(def) {
		m := tokenRx.FindStringSubmatch(token)
		if m == nil {
			panic(fmt.Errorf("%q is not a valid field", token))
		}
		if m[2] == "!" {
			defs = append(defs, FieldIndex(m[1], SkipZeros))
		} else {
			defs = append(defs, FieldIndex(m[1]))
		}
	}
	switch len(defs) {
	case 0:
		return IdentityIndex()
	case 1:
		return defs[0]
	default:
		return CompoundIndex(defs...)
	}
}

// UniqueIndex is the same as Index, but the produced index is unique
func UniqueIndex(def string) Definition {
	return UniquifyIndex(Index(def))
}
