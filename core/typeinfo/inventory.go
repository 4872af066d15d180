package typeinfo

import (
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/anoideaopen/limitless/core/reflectx"
	"gopkg.in/yaml.v3"
)

// Inventory is a serializable summary of a descriptor.
type Inventory struct {
	Type         string                       `yaml:"type"`
	Constructors []string                     `yaml:"constructors,omitempty"`
	Methods      map[string][]MethodInventory `yaml:"methods,omitempty"`
	Properties   map[string]PropertyInventory `yaml:"properties,omitempty"`
	Fields       map[string]FieldInventory    `yaml:"fields,omitempty"`
	Indexers     []string                     `yaml:"indexers,omitempty"`
	Events       map[string]string            `yaml:"events,omitempty"`
	Nested       map[string]string            `yaml:"nested,omitempty"`
	Conversions  []string                     `yaml:"conversions,omitempty"`
	// Reflected lists the method set reflection sees on *T, for comparison
	// with the registered members.
	Reflected []string `yaml:"reflected,omitempty"`
}

// MethodInventory describes one overload of a method group.
type MethodInventory struct {
	Signature string `yaml:"signature,omitempty"`
	Static    bool   `yaml:"static,omitempty"`
	Generic   int    `yaml:"generic,omitempty"`
}

// PropertyInventory describes a property and the accessors it has.
type PropertyInventory struct {
	Type   string `yaml:"type"`
	Static bool   `yaml:"static,omitempty"`
	Read   bool   `yaml:"read"`
	Write  bool   `yaml:"write"`
}

// FieldInventory describes a field or a registered package-level variable.
type FieldInventory struct {
	Type     string `yaml:"type"`
	Static   bool   `yaml:"static,omitempty"`
	ReadOnly bool   `yaml:"readOnly,omitempty"`
}

// Inventory summarizes the members of the descriptor.
func (ti *TypeInfo) Inventory() Inventory {
	inv := Inventory{
		Type:       ti.Type.String(),
		Methods:    make(map[string][]MethodInventory, len(ti.methods)),
		Properties: make(map[string]PropertyInventory, len(ti.properties)),
		Fields:     make(map[string]FieldInventory, len(ti.fields)),
		Events:     make(map[string]string, len(ti.events)),
		Nested:     make(map[string]string, len(ti.nested)),
	}

	for _, c := range ti.constructors {
		inv.Constructors = append(inv.Constructors, c.fn.Type().String())
	}

	for name, group := range ti.methods {
		for _, m := range group {
			mi := MethodInventory{Static: m.Static, Generic: m.arity}
			if m.arity == 0 {
				mi.Signature = m.Type().String()
			}
			inv.Methods[name] = append(inv.Methods[name], mi)
		}
	}

	for name, p := range ti.properties {
		inv.Properties[name] = PropertyInventory{
			Type:   p.Type.String(),
			Static: p.Static,
			Read:   p.CanRead(),
			Write:  p.CanWrite(),
		}
	}

	for name, f := range ti.fields {
		inv.Fields[name] = FieldInventory{Type: f.Type.String(), Static: f.Static, ReadOnly: f.ReadOnly}
	}

	for _, ix := range ti.indexers {
		fn := reflect.FuncOf(ix.Keys, []reflect.Type{ix.Value}, false)
		inv.Indexers = append(inv.Indexers, fn.String())
	}

	for name, e := range ti.events {
		var handler string
		if e.Handler != nil {
			handler = e.Handler.String()
		}
		inv.Events[name] = handler
	}

	for name, t := range ti.nested {
		inv.Nested[name] = t.String()
	}

	for _, table := range []map[reflect.Type]*ConverterInfo{ti.convertsFrom, ti.convertsInto} {
		for _, t := range slices.SortedFunc(maps.Keys(table), func(a, b reflect.Type) int {
			return strings.Compare(a.String(), b.String())
		}) {
			c := table[t]
			kind := "implicit"
			if c.Explicit {
				kind = "explicit"
			}
			inv.Conversions = append(inv.Conversions, kind+" "+c.From.String()+" -> "+c.To.String())
		}
	}

	if ti.Type.Kind() != reflect.Interface {
		inv.Reflected = reflectx.Methods(ti.Type)
	}

	return inv
}

// YAML renders the inventory as a YAML document.
func (inv Inventory) YAML() ([]byte, error) {
	return yaml.Marshal(inv)
}
