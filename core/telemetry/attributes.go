package telemetry

import (
	"reflect"

	"go.opentelemetry.io/otel/attribute"
)

type ResolveKindNum int

func (k ResolveKindNum) String() string {
	switch k {
	case ResolveConverter:
		return "converter"
	case ResolveOperator:
		return "operator"
	case ResolveMethod:
		return "method"
	case ResolveProperty:
		return "property"
	case ResolveUnknown:
		fallthrough
	default:
		return "unknown"
	}
}

const (
	ResolveUnknown ResolveKindNum = iota
	ResolveConverter
	ResolveOperator
	ResolveMethod
	ResolveProperty
)

func ResolveKind(k ResolveKindNum) attribute.KeyValue {
	return attribute.String("resolve_kind", k.String())
}

func TypeName(t reflect.Type) attribute.KeyValue {
	if t == nil {
		return attribute.String("type", "<nil>")
	}
	return attribute.String("type", t.String())
}

func Types(ts ...reflect.Type) attribute.KeyValue {
	names := make([]string, len(ts))
	for i, t := range ts {
		if t == nil {
			names[i] = "<nil>"
			continue
		}
		names[i] = t.String()
	}
	return attribute.StringSlice("types", names)
}

func MemberCount(n int) attribute.KeyValue {
	return attribute.Int("member_count", n)
}

func Member(name string) attribute.KeyValue {
	return attribute.String("member", name)
}

func Resolved(ok bool) attribute.KeyValue {
	return attribute.Bool("resolved", ok)
}

func EngineID(id string) attribute.KeyValue {
	return attribute.String("engine_id", id)
}
