package meta

import (
	"fmt"
	"reflect"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

func panicf(format string, a ...any) {
	panic(fmt.Sprintf(format, a...))
}

func (s *Struct) setDBName(dbName string) {
	if dbName == "" || s.DBName == dbName {
		return
	}
	if s.DBName != "" {
		panicf("conflicting DB name settings for struct %v: %s vs. %s", s.Type, s.DBName, dbName)
	}
	s.DBName = dbName
}

// Survey produces a Struct describing a type
func Survey(t reflect.Type) Struct {
	s := survey(t)
	if s.DBName == "" {
		panicf("missing struct-level DB name setting in struct %v", s.Type)
	}
	if s.identity == noIdentity {
		panicf("missing identity field in struct %v", s)
	}
	audits := map[Audit]Field{}
	for _, f := range s.Fields {
		if f.Audit == AuditNone {
			continue
		}
		if prev, ok := audits[f.Audit]; ok {
			panicf("duplicate audit fields %v.%s and %v.%s", t, prev, t, f)
		}
		audits[f.Audit] = f
	}
	return s
}

func survey(t reflect.Type) Struct {
	if t.Kind() != reflect.Struct {
		panicf("%v expected to be a struct type", t)
	}

	n := t.NumField()
	s := Struct{
		Type:     t,
		Fields:   make([]Field, 0, n),
		identity: noIdentity,
	}
	names := map[string]int{} // holds indexes into s.Fields

loop:
	for i := 0; i < n; i++ {
		f := t.Field(i)
		options := parseTag(f.Tag)
		switch {
		case f.Type == metaType:
			for _, opt := range options {
				switch opt.key {
				case "name=":
					s.setDBName(opt.value)
				default:
					panicf("invalid struct-level option for %v: %s", t, opt)
				}
			}

		case f.Anonymous:
			allConst := false
			for _, opt := range options {
				switch opt.key {
				case "-":
					if len(options) != 1 {
						panicf("option - for field %v.%s cannot be combined with other options", t, f.Name)
					}
					continue loop
				case "const":
					allConst = true
				default:
					panicf("invalid option for %v.%s: %s", t, f.Name, opt)
				}
			}
			sub := survey(f.Type)
			s.setDBName(sub.DBName)
			if sub.identity != noIdentity {
				if s.identity != noIdentity {
					panicf("duplicate identity fields %v.%s and %v.%s",
						t, s.Fields[s.identity], t, sub.Fields[sub.identity])
				}
				s.identity = len(s.Fields) + sub.identity
			}
			for _, field := range sub.Fields {
				field.Index = append([]int{i}, field.Index...)
				if idx, ok := names[field.Name]; ok {
					panicf("duplicate field name %s in %v: %s and %s", field.Name, t, s.Fields[idx], field)
				}
				names[field.Name] = len(s.Fields)
				if allConst {
					field.Const = true
				}
				s.Fields = append(s.Fields, field)
			}

		default:
			field := Field{
				Name:  f.Name,
				Index: f.Index,
				Type:  f.Type,
			}
			for _, opt := range options {
				switch opt.key {
				case "-":
					if len(options) != 1 {
						panicf("option - for field %v.%s cannot be combined with other options", t, field)
					}
					continue loop
				case "const":
					field.Const = true
				case "required":
					field.Required = true
				case "identity":
					if s.identity != noIdentity {
						panicf("duplicate identity fields %v.%s and %v.%s",
							t, s.Fields[s.identity], t, field)
					}
					if f.Type.Kind() != reflect.String {
						panicf("identity field %v.%s must be string-based", t, field)
					}
					field.Const = true
					s.identity = len(s.Fields)
				case "created", "changed":
					if f.Type != timeType {
						panicf("audit field %v.%s must be time.Time", t, field)
					}
					field.Audit = AuditCreated
					if opt.key == "changed" {
						field.Audit = AuditChanged
					}
				default:
					panicf("invalid option for %v.%s: %s", t, field, opt)
				}
			}
			if !f.IsExported() {
				panicf("unexported field %v.%s must be skipped using a `chamber:\"-\"` tag", t, field)
			}
			if idx, ok := names[field.Name]; ok {
				panicf("duplicate field name %s in %v: %s and %s", field.Name, t, s.Fields[idx], field)
			}
			names[field.Name] = len(s.Fields)
			s.Fields = append(s.Fields, field)
		}
	}

	return s
}
