// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/codec"
)

// FromStruct derives a service descriptor directly from the exported methods
// of impl, for the common case of a plain Go value whose methods already
// have the right shape: zero or more primitive-typed parameters, and either
// no return value, one primitive-typed return value, or a primitive-typed
// return value plus a trailing error.
//
// Method names are translated to the wire naming grammar of spec.md §6: a
// Go method named GetFoo or SetFoo becomes the wire procedure get_Foo or
// set_Foo; anything else becomes a bare service-level procedure with its Go
// name unchanged. FromStruct cannot derive instance methods (it has no way
// to discover which object class a method belongs to from reflection
// alone); build those with the Builder's Method/InstanceGetter/
// InstanceSetter instead.
func FromStruct(serviceName string, impl any) (*procrpc.ServiceDescriptor, error) {
	rv := reflect.ValueOf(impl)
	rt := rv.Type()

	b := New(serviceName)
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if m.PkgPath != "" {
			continue // unexported
		}
		sig, err := signatureFor(rv.Method(i), m.Name)
		if err != nil {
			return nil, fmt.Errorf("service: method %s.%s: %w", rt.Name(), m.Name, err)
		}
		b = b.add(wireName(m.Name), sig.Kind, "", sig.Parameters, sig.ReturnType, sig.Invoker)
	}
	return b.Build(), nil
}

func wireName(goName string) string {
	switch {
	case strings.HasPrefix(goName, "Get") && len(goName) > 3:
		return "get_" + goName[3:]
	case strings.HasPrefix(goName, "Set") && len(goName) > 3:
		return "set_" + goName[3:]
	default:
		return goName
	}
}

// methodSig is an intermediate result; its Kind is always ServiceProcedure,
// ServiceGetter, or ServiceSetter (FromStruct only derives service-level
// procedures), chosen to match wireName's translation.
type methodSig struct {
	Kind       procrpc.ProcedureKind
	Parameters []procrpc.Parameter
	ReturnType *codec.TypeDescriptor
	Invoker    procrpc.Invoker
}

func signatureFor(fn reflect.Value, goName string) (methodSig, error) {
	ft := fn.Type()

	params := make([]procrpc.Parameter, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		td, err := typeDescriptorFor(ft.In(i))
		if err != nil {
			return methodSig{}, fmt.Errorf("parameter %d: %w", i, err)
		}
		params[i] = procrpc.Parameter{Name: fmt.Sprintf("arg%d", i), Type: td}
	}

	ret, returnsError, err := returnShape(ft)
	if err != nil {
		return methodSig{}, err
	}

	kind := procrpc.ServiceProcedure
	switch {
	case strings.HasPrefix(goName, "Get") && len(goName) > 3:
		kind = procrpc.ServiceGetter
	case strings.HasPrefix(goName, "Set") && len(goName) > 3:
		kind = procrpc.ServiceSetter
	}

	invoker := func(args []any) procrpc.Outcome {
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			in[i] = reflect.ValueOf(a).Convert(ft.In(i))
		}
		out := fn.Call(in)
		if returnsError {
			if errv := out[len(out)-1]; !errv.IsNil() {
				return procrpc.Failed(errv.Interface().(error))
			}
			out = out[:len(out)-1]
		}
		if len(out) == 0 {
			return procrpc.Done(nil)
		}
		switch res := out[0]; res.Kind() {
		case reflect.Int:
			return procrpc.Done(res.Int())
		case reflect.Uint:
			return procrpc.Done(res.Uint())
		}
		return procrpc.Done(out[0].Interface())
	}

	return methodSig{Kind: kind, Parameters: params, ReturnType: ret, Invoker: invoker}, nil
}

func returnShape(ft reflect.Type) (ret *codec.TypeDescriptor, returnsError bool, err error) {
	n := ft.NumOut()
	switch n {
	case 0:
		return codec.Void(), false, nil
	case 1:
		if ft.Out(0) == errorType {
			return codec.Void(), true, nil
		}
		td, err := typeDescriptorFor(ft.Out(0))
		return td, false, err
	case 2:
		if ft.Out(1) != errorType {
			return nil, false, fmt.Errorf("second return value must be error, got %s", ft.Out(1))
		}
		td, err := typeDescriptorFor(ft.Out(0))
		return td, true, err
	default:
		return nil, false, fmt.Errorf("at most two return values are supported, got %d", n)
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func typeDescriptorFor(t reflect.Type) (*codec.TypeDescriptor, error) {
	if t == reflect.TypeOf([]byte(nil)) {
		return codec.Primitive(codec.KindBytes), nil
	}
	switch t.Kind() {
	case reflect.Int32:
		return codec.Primitive(codec.KindInt32), nil
	case reflect.Int64, reflect.Int:
		return codec.Primitive(codec.KindInt64), nil
	case reflect.Uint32:
		return codec.Primitive(codec.KindUint32), nil
	case reflect.Uint64, reflect.Uint:
		return codec.Primitive(codec.KindUint64), nil
	case reflect.Float32:
		return codec.Primitive(codec.KindFloat), nil
	case reflect.Float64:
		return codec.Primitive(codec.KindDouble), nil
	case reflect.Bool:
		return codec.Primitive(codec.KindBool), nil
	case reflect.String:
		return codec.Primitive(codec.KindString), nil
	default:
		return nil, fmt.Errorf("unsupported reflect type %s; register this procedure manually with Builder instead", t)
	}
}
