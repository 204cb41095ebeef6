// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package procrpc_test

import (
	"testing"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/codec"
	"github.com/orbitalsoft/procrpc/objectstore"
)

func TestBindArgumentsMissingRequired(t *testing.T) {
	strTD := codec.Primitive(codec.KindString)
	sig := &procrpc.ProcedureSignature{
		Service:   "Svc",
		Procedure: "F",
		Parameters: []procrpc.Parameter{
			{Name: "s", Type: strTD},
		},
	}
	_, err := procrpc.BindArguments(sig, nil, objectstore.New())
	perr, ok := procrpc.AsError(err)
	if !ok || perr.Kind != procrpc.MissingArgument {
		t.Errorf("BindArguments error = %v, want MissingArgument", err)
	}
}

func TestBindArgumentsPositionOutOfRange(t *testing.T) {
	strTD := codec.Primitive(codec.KindString)
	sig := &procrpc.ProcedureSignature{
		Service:    "Svc",
		Procedure:  "F",
		Parameters: []procrpc.Parameter{{Name: "s", Type: strTD}},
	}
	enc, _ := codec.Encode("x", strTD)
	_, err := procrpc.BindArguments(sig, []procrpc.Argument{{Position: 5, Value: enc}}, objectstore.New())
	perr, ok := procrpc.AsError(err)
	if !ok || perr.Kind != procrpc.InvalidArgument {
		t.Errorf("BindArguments error = %v, want InvalidArgument", err)
	}
}

func TestBindArgumentsDuplicatePosition(t *testing.T) {
	strTD := codec.Primitive(codec.KindString)
	sig := &procrpc.ProcedureSignature{
		Service:   "Svc",
		Procedure: "F",
		Parameters: []procrpc.Parameter{
			{Name: "s", Type: strTD},
			{Name: "t", Type: strTD, HasDefault: true, Default: mustEncode(t, "d", strTD)},
		},
	}
	enc, _ := codec.Encode("x", strTD)
	_, err := procrpc.BindArguments(sig, []procrpc.Argument{
		{Position: 0, Value: enc},
		{Position: 0, Value: enc},
	}, objectstore.New())
	perr, ok := procrpc.AsError(err)
	if !ok || perr.Kind != procrpc.InvalidArgument {
		t.Errorf("BindArguments error = %v, want InvalidArgument", err)
	}
}

func mustEncode(t *testing.T, v any, td *codec.TypeDescriptor) []byte {
	t.Helper()
	b, err := codec.Encode(v, td)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBindArgumentsNullReceiver(t *testing.T) {
	refTD := codec.ObjectRef("Vessel")
	sig := &procrpc.ProcedureSignature{
		Service:    "Svc",
		Procedure:  "Vessel_Stage",
		Kind:       procrpc.InstanceMethod,
		Parameters: []procrpc.Parameter{{Name: "self", Type: refTD}},
	}
	enc, _ := codec.Encode(objectstore.NullHandle, refTD)
	_, err := procrpc.BindArguments(sig, []procrpc.Argument{{Position: 0, Value: enc}}, objectstore.New())
	perr, ok := procrpc.AsError(err)
	if !ok || perr.Kind != procrpc.NullReference {
		t.Errorf("BindArguments error = %v, want NullReference", err)
	}
}

func TestBindArgumentsUnknownHandle(t *testing.T) {
	refTD := codec.ObjectRef("Vessel")
	sig := &procrpc.ProcedureSignature{
		Service:    "Svc",
		Procedure:  "ReadVessel",
		Parameters: []procrpc.Parameter{{Name: "v", Type: refTD}},
	}
	enc, _ := codec.Encode(uint64(999), refTD)
	_, err := procrpc.BindArguments(sig, []procrpc.Argument{{Position: 0, Value: enc}}, objectstore.New())
	perr, ok := procrpc.AsError(err)
	if !ok || perr.Kind != procrpc.UnknownHandle {
		t.Errorf("BindArguments error = %v, want UnknownHandle", err)
	}
}

func TestBindArgumentsResolvesLiveHandle(t *testing.T) {
	refTD := codec.ObjectRef("Vessel")
	sig := &procrpc.ProcedureSignature{
		Service:    "Svc",
		Procedure:  "ReadVessel",
		Parameters: []procrpc.Parameter{{Name: "v", Type: refTD}},
	}
	store := objectstore.New()
	obj := &struct{ Name string }{Name: "Kerbal X"}
	h := store.Add(obj)
	enc, _ := codec.Encode(h, refTD)

	bound, err := procrpc.BindArguments(sig, []procrpc.Argument{{Position: 0, Value: enc}}, store)
	if err != nil {
		t.Fatal(err)
	}
	if bound[0].(*struct{ Name string }) != obj {
		t.Error("bound argument is not the same object stored under the handle")
	}
}

func TestBindArgumentsUsesDefaults(t *testing.T) {
	intTD := codec.Primitive(codec.KindInt32)
	sig := &procrpc.ProcedureSignature{
		Service:   "Svc",
		Procedure: "F",
		Parameters: []procrpc.Parameter{
			{Name: "n", Type: intTD, HasDefault: true, Default: mustEncode(t, int32(7), intTD)},
		},
	}
	bound, err := procrpc.BindArguments(sig, nil, objectstore.New())
	if err != nil {
		t.Fatal(err)
	}
	if bound[0].(int32) != 7 {
		t.Errorf("bound default = %v, want 7", bound[0])
	}
}
