// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package service_test

import (
	"testing"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/codec"
	"github.com/orbitalsoft/procrpc/service"
)

func TestBuilderAssemblesProcedures(t *testing.T) {
	desc := service.New("Vessel").
		Procedure("Stage", nil, codec.Void(), func(args []any) procrpc.Outcome { return procrpc.Done(nil) }).
		Getter("Altitude", codec.Primitive(codec.KindDouble), func(args []any) procrpc.Outcome { return procrpc.Done(100.0) }).
		Context(procrpc.ActivityContext("Flight")).
		Class("Part").
		Method("Part", "Activate", nil, codec.Void(), func(args []any) procrpc.Outcome { return procrpc.Done(nil) }).
		Build()

	if desc.Name != "Vessel" {
		t.Fatalf("Name = %q", desc.Name)
	}
	if len(desc.Classes) != 1 || desc.Classes[0] != "Part" {
		t.Fatalf("Classes = %v", desc.Classes)
	}
	if len(desc.Procedures) != 3 {
		t.Fatalf("Procedures = %d, want 3", len(desc.Procedures))
	}

	byName := map[string]*procrpc.ProcedureSignature{}
	for _, p := range desc.Procedures {
		byName[p.Procedure] = p
	}

	if p := byName["Stage"]; p == nil || p.Kind != procrpc.ServiceProcedure {
		t.Errorf("Stage = %+v", p)
	}
	if p := byName["get_Altitude"]; p == nil || p.Kind != procrpc.ServiceGetter {
		t.Errorf("get_Altitude = %+v", p)
	} else if len(p.RequiredContext) != 1 || p.RequiredContext[0] != procrpc.ActivityContext("Flight") {
		t.Errorf("get_Altitude context = %v", p.RequiredContext)
	}
	if p := byName["Part_Activate"]; p == nil || p.Kind != procrpc.InstanceMethod || p.ClassID != "Part" {
		t.Errorf("Part_Activate = %+v", p)
	} else if len(p.Parameters) != 1 || p.Parameters[0].Type.Kind != codec.KindObjectRef {
		t.Errorf("Part_Activate receiver parameter = %+v", p.Parameters)
	}
}

func TestBuilderContextWithoutProcedurePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling Context before any Procedure")
		}
	}()
	service.New("Empty").Context(procrpc.ActivityContext("Flight"))
}

func TestRegisterBuiltDescriptor(t *testing.T) {
	desc := service.New("Core").
		Procedure("GetStatus", nil, codec.Primitive(codec.KindString), func(args []any) procrpc.Outcome {
			return procrpc.Done("ok")
		}).
		Build()

	reg := procrpc.NewRegistry()
	if err := reg.Register(desc); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sig, err := reg.Lookup("Core", "GetStatus")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if sig.Invoker == nil {
		t.Fatal("registered signature has nil invoker")
	}
}
