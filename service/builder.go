// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package service provides a chained builder for assembling the service
// descriptors consumed by procrpc.Registry.Register, plus a reflection
// helper (FromStruct) that derives a descriptor directly from a Go value's
// exported methods.
//
// # Usage
//
// Build a descriptor by hand, procedure by procedure:
//
//	desc := service.New("Vessel").
//	  Procedure("GetAltitude", nil, codec.Primitive(codec.KindDouble), getAltitude).
//	  Class("Part").
//	  Method("Part", "Activate", nil, codec.Void(), activatePart).
//	  Build()
//
// or derive one from a Go struct's exported methods:
//
//	desc, err := service.FromStruct("Vessel", new(VesselService))
package service

import (
	"fmt"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/codec"
)

// A Builder accumulates the procedures and classes of one service
// descriptor. The zero value is not usable; construct one with New. Like a
// catalog-style builder, a Builder's methods return the Builder to permit
// chaining, and a Builder value may be copied freely:
// copies share the same underlying descriptor.
type Builder struct {
	desc *procrpc.ServiceDescriptor
}

// New starts a Builder for a service named name.
func New(name string) Builder {
	return Builder{desc: &procrpc.ServiceDescriptor{Name: name}}
}

// Class declares that the service owns instance class id, so the naming
// grammar recognizes "<id>_..." procedure names as belonging to it. Class
// returns the Builder to permit chaining.
func (b Builder) Class(id string) Builder {
	b.desc.Classes = append(b.desc.Classes, id)
	return b
}

// Procedure adds a bare service-level procedure. Procedure returns the
// Builder to permit chaining.
func (b Builder) Procedure(name string, params []procrpc.Parameter, ret *codec.TypeDescriptor, invoker procrpc.Invoker) Builder {
	return b.add(name, procrpc.ServiceProcedure, "", params, ret, invoker)
}

// Getter adds a service-level property getter (wire name get_<name>).
func (b Builder) Getter(name string, ret *codec.TypeDescriptor, invoker procrpc.Invoker) Builder {
	return b.add("get_"+name, procrpc.ServiceGetter, "", nil, ret, invoker)
}

// Setter adds a service-level property setter (wire name set_<name>). The
// setter's sole parameter is the value being assigned.
func (b Builder) Setter(name string, param *codec.TypeDescriptor, invoker procrpc.Invoker) Builder {
	params := []procrpc.Parameter{{Name: name, Type: param}}
	return b.add("set_"+name, procrpc.ServiceSetter, "", params, codec.Void(), invoker)
}

// Method adds an instance method on class classID (wire name
// <classID>_<name>). The receiver handle is always parameter position 0;
// params describes only the remaining parameters.
func (b Builder) Method(classID, name string, params []procrpc.Parameter, ret *codec.TypeDescriptor, invoker procrpc.Invoker) Builder {
	full := append([]procrpc.Parameter{receiverParam(classID)}, params...)
	return b.add(classID+"_"+name, procrpc.InstanceMethod, classID, full, ret, invoker)
}

// InstanceGetter adds an instance property getter (wire name
// <classID>_get_<name>).
func (b Builder) InstanceGetter(classID, name string, ret *codec.TypeDescriptor, invoker procrpc.Invoker) Builder {
	params := []procrpc.Parameter{receiverParam(classID)}
	return b.add(classID+"_get_"+name, procrpc.InstanceGetter, classID, params, ret, invoker)
}

// InstanceSetter adds an instance property setter (wire name
// <classID>_set_<name>). Parameter 0 is the receiver handle; parameter 1 is
// the value being assigned.
func (b Builder) InstanceSetter(classID, name string, param *codec.TypeDescriptor, invoker procrpc.Invoker) Builder {
	params := []procrpc.Parameter{receiverParam(classID), {Name: name, Type: param}}
	return b.add(classID+"_set_"+name, procrpc.InstanceSetter, classID, params, codec.Void(), invoker)
}

// Context restricts the most recently added procedure to the given activity
// contexts. Calling Context before any procedure has been added panics.
func (b Builder) Context(contexts ...procrpc.ActivityContext) Builder {
	if len(b.desc.Procedures) == 0 {
		panic("service: Context called before any procedure was added")
	}
	b.desc.Procedures[len(b.desc.Procedures)-1].RequiredContext = contexts
	return b
}

// Build returns the assembled descriptor.
func (b Builder) Build() *procrpc.ServiceDescriptor { return b.desc }

func (b Builder) add(name string, kind procrpc.ProcedureKind, classID string, params []procrpc.Parameter, ret *codec.TypeDescriptor, invoker procrpc.Invoker) Builder {
	b.desc.Procedures = append(b.desc.Procedures, &procrpc.ProcedureSignature{
		Procedure:  name,
		Kind:       kind,
		ClassID:    classID,
		Parameters: params,
		ReturnType: ret,
		Invoker:    invoker,
	})
	return b
}

func receiverParam(classID string) procrpc.Parameter {
	return procrpc.Parameter{Name: "self", Type: codec.ObjectRef(classID)}
}

// Must is a convenience for call sites that register at init time and want
// to fail fast: it panics if err is non-nil, otherwise returns desc.
func Must(desc *procrpc.ServiceDescriptor, err error) *procrpc.ServiceDescriptor {
	if err != nil {
		panic(fmt.Sprintf("service: %v", err))
	}
	return desc
}
