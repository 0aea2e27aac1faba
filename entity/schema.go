// Package entity resolves Go model structs into the metadata the query
// translator needs: the element name the remote service knows the type by,
// and the designated identifier / number / last-modified fields that are
// diverted out of the general filter into dedicated query parameters.
//
//	type Invoice struct {
//	    InvoiceID     uuid.UUID `restorm:"InvoiceID,id"`
//	    InvoiceNumber string    `restorm:"InvoiceNumber,number"`
//	    UpdatedUTC    time.Time `restorm:"UpdatedDateUTC,updated"`
//	    Status        string    `restorm:"Status"`
//	}
//
//	schema, err := entity.Describe(Invoice{})
package entity

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of field value types the remote filter grammar
// distinguishes. The names double as the static type prefix in rendered
// field-method calls (e.g. "String.Compare").
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindDateTime
	KindGuid
	KindInt32
	KindInt64
	KindBool
	KindFloat
)

var kindNames = map[Kind]string{
	KindUnknown:  "Unknown",
	KindString:   "String",
	KindDateTime: "DateTime",
	KindGuid:     "Guid",
	KindInt32:    "Int32",
	KindInt64:    "Int64",
	KindBool:     "Boolean",
	KindFloat:    "Float",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// KindOf maps a Go type onto the grammar's value kinds. Pointer types are
// unwrapped so optional fields (*string, *time.Time) keep their kind.
func KindOf(t reflect.Type) Kind {
	if t == nil {
		return KindUnknown
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return KindDateTime
	case uuidType:
		return KindGuid
	}
	switch t.Kind() {
	case reflect.String:
		return KindString
	case reflect.Int32, reflect.Int16, reflect.Int8:
		return KindInt32
	case reflect.Int, reflect.Int64:
		return KindInt64
	case reflect.Bool:
		return KindBool
	case reflect.Float32, reflect.Float64:
		return KindFloat
	}
	return KindUnknown
}

// Field describes one queryable entity field.
type Field struct {
	Name string // wire name used in the filter grammar
	Go   string // Go struct field name
	Kind Kind
}

// Schema is the resolved metadata for one element type. ID, Number and
// Updated are nil when the struct designates no such field.
type Schema struct {
	Name   string // element type name, e.g. "Invoice"
	Plural string // endpoint / response envelope name, e.g. "Invoices"
	Type   reflect.Type

	ID      *Field
	Number  *Field
	Updated *Field

	Fields []Field
}

// Field returns the descriptor for a wire name, or nil.
func (s *Schema) Field(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

var schemaCache sync.Map // reflect.Type -> *Schema

// Describe builds (or returns the cached) Schema for a model struct.
// Fields without a restorm tag are still queryable under their Go name;
// tag roles `id`, `number` and `updated` designate the diverted fields.
func Describe(model any) (*Schema, error) {
	rt := reflect.TypeOf(model)
	if rt == nil {
		return nil, fmt.Errorf("entity: nil model")
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity: model must be a struct, got %s", rt.Kind())
	}
	if cached, ok := schemaCache.Load(rt); ok {
		return cached.(*Schema), nil
	}

	s := &Schema{
		Name:   rt.Name(),
		Plural: pluralize(rt.Name()),
		Type:   rt,
	}
	// Two passes: collect first, then resolve role pointers, so the
	// descriptors point into the final backing array.
	roleIdx := map[string]int{}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		var roles []string
		if tag := f.Tag.Get("restorm"); tag != "" {
			if tag == "-" {
				continue
			}
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			roles = parts[1:]
		}
		s.Fields = append(s.Fields, Field{Name: name, Go: f.Name, Kind: KindOf(f.Type)})
		for _, role := range roles {
			roleIdx[strings.ToLower(strings.TrimSpace(role))] = len(s.Fields) - 1
		}
	}
	if i, ok := roleIdx["id"]; ok {
		s.ID = &s.Fields[i]
	}
	if i, ok := roleIdx["number"]; ok {
		s.Number = &s.Fields[i]
	}
	if i, ok := roleIdx["updated"]; ok {
		s.Updated = &s.Fields[i]
	}

	actual, _ := schemaCache.LoadOrStore(rt, s)
	return actual.(*Schema), nil
}

// pluralize keeps to the service's naive endpoint naming.
func pluralize(name string) string {
	switch {
	case name == "":
		return ""
	case strings.HasSuffix(name, "s"), strings.HasSuffix(name, "x"):
		return name + "es"
	case strings.HasSuffix(name, "y"):
		return name[:len(name)-1] + "ies"
	default:
		return name + "s"
	}
}
