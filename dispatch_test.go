// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package procrpc_test

import (
	"testing"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/codec"
	"github.com/orbitalsoft/procrpc/objectstore"
)

func encode(t *testing.T, v any, td *codec.TypeDescriptor) []byte {
	t.Helper()
	b, err := codec.Encode(v, td)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return b
}

func newFixture() (*procrpc.Registry, *objectstore.Store, *procrpc.Dispatcher) {
	reg := procrpc.NewRegistry()
	store := objectstore.New()
	ctx := procrpc.ContextProviderFunc(func() procrpc.ActivityContext { return "Flight" })
	disp := procrpc.NewDispatcher(reg, store, ctx)
	return reg, store, disp
}

func TestUnknownService(t *testing.T) {
	_, _, disp := newFixture()
	resp := firstResponse(t, disp, &procrpc.Request{Service: "NonExistant", Procedure: "X"})
	if resp.Error == "" {
		t.Fatal("expected an error, got none")
	}
	want := "UnknownService: NonExistant"
	if resp.Error != want {
		t.Errorf("Error = %q, want %q", resp.Error, want)
	}
}

func TestSingleArgRoundTrip(t *testing.T) {
	reg, _, disp := newFixture()
	strTD := codec.Primitive(codec.KindString)
	echo := &procrpc.ProcedureSignature{
		Procedure:  "Echo",
		Parameters: []procrpc.Parameter{{Name: "s", Type: strTD}},
		ReturnType: strTD,
		Invoker: func(args []any) procrpc.Outcome {
			return procrpc.Done(args[0])
		},
	}
	if err := reg.Register(&procrpc.ServiceDescriptor{Name: "TestService", Procedures: []*procrpc.ProcedureSignature{echo}}); err != nil {
		t.Fatal(err)
	}

	req := &procrpc.Request{
		Service:   "TestService",
		Procedure: "Echo",
		Arguments: []procrpc.Argument{{Position: 0, Value: encode(t, "foo", strTD)}},
	}
	resp := firstResponse(t, disp, req)
	if resp.Error != "" {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	got, err := codec.Decode(resp.ReturnValue, strTD)
	if err != nil {
		t.Fatal(err)
	}
	if got != "foo" {
		t.Errorf("return value = %v, want foo", got)
	}
}

func TestOptionalOutOfOrderArguments(t *testing.T) {
	reg, _, disp := newFixture()
	floatTD := codec.Primitive(codec.KindFloat)
	strTD := codec.Primitive(codec.KindString)
	int32TD := codec.Primitive(codec.KindInt32)

	var observed []any
	f := &procrpc.ProcedureSignature{
		Procedure: "F",
		Parameters: []procrpc.Parameter{
			{Name: "a", Type: floatTD, HasDefault: true, Default: encode(t, float32(1.0), floatTD)},
			{Name: "b", Type: strTD, HasDefault: true, Default: encode(t, "x", strTD)},
			{Name: "c", Type: int32TD, HasDefault: true, Default: encode(t, int32(0), int32TD)},
		},
		ReturnType: codec.Void(),
		Invoker: func(args []any) procrpc.Outcome {
			observed = args
			return procrpc.Done(nil)
		},
	}
	if err := reg.Register(&procrpc.ServiceDescriptor{Name: "Svc", Procedures: []*procrpc.ProcedureSignature{f}}); err != nil {
		t.Fatal(err)
	}

	req := &procrpc.Request{
		Service:   "Svc",
		Procedure: "F",
		Arguments: []procrpc.Argument{
			{Position: 2, Value: encode(t, int32(42), int32TD)},
			{Position: 0, Value: encode(t, float32(3.14159), floatTD)},
		},
	}
	resp := firstResponse(t, disp, req)
	if resp.Error != "" {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if len(observed) != 3 || observed[0] != float32(3.14159) || observed[1] != "x" || observed[2] != int32(42) {
		t.Errorf("observed args = %v, want (3.14159, x, 42)", observed)
	}
}

type classX struct{ n int }

func TestObjectRoundTripAcrossServices(t *testing.T) {
	reg, store, disp := newFixture()
	strTD := codec.Primitive(codec.KindString)
	xRefTD := codec.ObjectRef("ClassX")
	intTD := codec.Primitive(codec.KindInt32)

	make_ := &procrpc.ProcedureSignature{
		Procedure:  "Make",
		Parameters: []procrpc.Parameter{{Name: "s", Type: strTD}},
		ReturnType: xRefTD,
		Invoker: func(args []any) procrpc.Outcome {
			return procrpc.Done(&classX{n: len(args[0].(string))})
		},
	}
	var sawSameObject *classX
	readInt := &procrpc.ProcedureSignature{
		Procedure:  "ReadInt",
		Parameters: []procrpc.Parameter{{Name: "x", Type: xRefTD}},
		ReturnType: intTD,
		Invoker: func(args []any) procrpc.Outcome {
			sawSameObject = args[0].(*classX)
			return procrpc.Done(int32(sawSameObject.n))
		},
	}
	if err := reg.Register(&procrpc.ServiceDescriptor{Name: "A", Procedures: []*procrpc.ProcedureSignature{make_}}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&procrpc.ServiceDescriptor{Name: "B", Procedures: []*procrpc.ProcedureSignature{readInt}}); err != nil {
		t.Fatal(err)
	}

	makeResp := firstResponse(t, disp, &procrpc.Request{
		Service: "A", Procedure: "Make",
		Arguments: []procrpc.Argument{{Position: 0, Value: encode(t, "jeb", strTD)}},
	})
	if makeResp.Error != "" {
		t.Fatalf("Make failed: %v", makeResp.Error)
	}
	handle, err := codec.Decode(makeResp.ReturnValue, xRefTD)
	if err != nil {
		t.Fatal(err)
	}
	if handle.(uint64) == objectstore.NullHandle {
		t.Fatal("Make returned a null handle")
	}

	readResp := firstResponse(t, disp, &procrpc.Request{
		Service: "B", Procedure: "ReadInt",
		Arguments: []procrpc.Argument{{Position: 0, Value: encode(t, handle, xRefTD)}},
	})
	if readResp.Error != "" {
		t.Fatalf("ReadInt failed: %v", readResp.Error)
	}
	got, err := codec.Decode(readResp.ReturnValue, intTD)
	if err != nil {
		t.Fatal(err)
	}
	if got.(int32) != 3 {
		t.Errorf("ReadInt result = %v, want 3", got)
	}

	obj, err := store.Get(handle.(uint64))
	if err != nil || obj.(*classX) != sawSameObject {
		t.Errorf("ReadInt did not observe the exact same host object")
	}
}

func TestCooperativeYield(t *testing.T) {
	reg, store, disp := newFixture()
	intTD := codec.Primitive(codec.KindInt32)

	var countdown func(n int32) procrpc.Outcome
	countdown = func(n int32) procrpc.Outcome {
		if n <= 0 {
			return procrpc.Done(n)
		}
		return procrpc.Yield(procrpc.ContinuationFunc(func() procrpc.Outcome {
			return countdown(n - 1)
		}))
	}
	count := &procrpc.ProcedureSignature{
		Procedure: "Count",
		Parameters: []procrpc.Parameter{
			{Name: "n", Type: intTD},
		},
		ReturnType: intTD,
		Invoker: func(args []any) procrpc.Outcome {
			return countdown(args[0].(int32))
		},
	}
	if err := reg.Register(&procrpc.ServiceDescriptor{Name: "Svc", Procedures: []*procrpc.ProcedureSignature{count}}); err != nil {
		t.Fatal(err)
	}

	sched := procrpc.NewScheduler(disp)
	var gotA, gotB *procrpc.Response
	sched.Submit("client-a", &procrpc.Request{
		Service: "Svc", Procedure: "Count",
		Arguments: []procrpc.Argument{{Position: 0, Value: encode(t, int32(10), intTD)}},
	}, func(r *procrpc.Response) { gotA = r })

	// Client B's unrelated request must not be blocked by A's yield chain.
	echoSig := echoIntSignature(intTD)
	if err := reg.Register(&procrpc.ServiceDescriptor{Name: "Svc2", Procedures: []*procrpc.ProcedureSignature{echoSig}}); err != nil {
		t.Fatal(err)
	}
	sched.Submit("client-b", &procrpc.Request{
		Service: "Svc2", Procedure: "Echo",
		Arguments: []procrpc.Argument{{Position: 0, Value: encode(t, int32(99), intTD)}},
	}, func(r *procrpc.Response) { gotB = r })

	ticks := 0
	for gotA == nil && ticks < 20 {
		sched.Tick()
		ticks++
	}
	if gotA == nil {
		t.Fatal("client A's request never completed")
	}
	if gotA.Error != "" {
		t.Fatalf("client A failed: %v", gotA.Error)
	}
	got, _ := codec.Decode(gotA.ReturnValue, intTD)
	if got.(int32) != 0 {
		t.Errorf("Count result = %v, want 0", got)
	}
	if ticks > 11 {
		t.Errorf("took %d ticks, want at most 11", ticks)
	}
	if gotB == nil {
		t.Fatal("client B's request was starved by client A's yield chain")
	}
	if gotB.Error != "" {
		t.Fatalf("client B failed: %v", gotB.Error)
	}

	_ = store
}

func echoIntSignature(intTD *codec.TypeDescriptor) *procrpc.ProcedureSignature {
	return &procrpc.ProcedureSignature{
		Procedure:  "Echo",
		Parameters: []procrpc.Parameter{{Name: "n", Type: intTD}},
		ReturnType: intTD,
		Invoker: func(args []any) procrpc.Outcome {
			return procrpc.Done(args[0])
		},
	}
}

// TestUnknownServiceOrderedAfterPendingCall verifies that a request which
// fails registry lookup does not jump the front of its own client's FIFO:
// it must be finalized and delivered only after an earlier, still-yielding
// request from the same client, never inline from Submit.
func TestUnknownServiceOrderedAfterPendingCall(t *testing.T) {
	reg, store, disp := newFixture()
	intTD := codec.Primitive(codec.KindInt32)

	release := make(chan struct{})
	var resume procrpc.ContinuationFunc
	resume = func() procrpc.Outcome {
		select {
		case <-release:
			return procrpc.Done(int32(1))
		default:
			return procrpc.Yield(resume)
		}
	}
	slowSig := &procrpc.ProcedureSignature{
		Procedure:  "Slow",
		ReturnType: intTD,
		Invoker: func(args []any) procrpc.Outcome {
			return procrpc.Yield(resume)
		},
	}
	if err := reg.Register(&procrpc.ServiceDescriptor{Name: "Svc", Procedures: []*procrpc.ProcedureSignature{slowSig}}); err != nil {
		t.Fatal(err)
	}

	sched := procrpc.NewScheduler(disp)
	var order []string
	deliver := func(name string) procrpc.ResponseFunc {
		return func(r *procrpc.Response) { order = append(order, name) }
	}

	sched.Submit("client-a", &procrpc.Request{Service: "Svc", Procedure: "Slow"}, deliver("slow"))
	sched.Submit("client-a", &procrpc.Request{Service: "NonExistant", Procedure: "X"}, deliver("unknown"))

	sched.Tick() // Slow yields once; unknown is still queued behind it.
	if len(order) != 0 {
		t.Fatalf("after first tick, order = %v, want none delivered yet", order)
	}
	close(release)
	for i := 0; i < 5 && len(order) < 2; i++ {
		sched.Tick()
	}
	if len(order) != 2 || order[0] != "slow" || order[1] != "unknown" {
		t.Fatalf("delivery order = %v, want [slow unknown]", order)
	}

	_ = store
}

func TestActivityContextMismatch(t *testing.T) {
	reg := procrpc.NewRegistry()
	store := objectstore.New()
	ctx := procrpc.ContextProviderFunc(func() procrpc.ActivityContext { return "TrackingStation" })
	disp := procrpc.NewDispatcher(reg, store, ctx)

	called := false
	sig := &procrpc.ProcedureSignature{
		Procedure:       "DoThing",
		ReturnType:      codec.Void(),
		RequiredContext: []procrpc.ActivityContext{"Flight"},
		Invoker: func(args []any) procrpc.Outcome {
			called = true
			return procrpc.Done(nil)
		},
	}
	if err := reg.Register(&procrpc.ServiceDescriptor{Name: "Svc", Procedures: []*procrpc.ProcedureSignature{sig}}); err != nil {
		t.Fatal(err)
	}

	resp := firstResponse(t, disp, &procrpc.Request{Service: "Svc", Procedure: "DoThing"})
	if resp.Error == "" {
		t.Fatal("expected an error")
	}
	if got, want := resp.Error[:len("WrongContext")], "WrongContext"; got != want {
		t.Errorf("error prefix = %q, want %q", got, want)
	}
	if called {
		t.Error("invoker was called despite context mismatch")
	}
}

func TestNullReturnForNonVoidNonObjectRef(t *testing.T) {
	reg, _, disp := newFixture()
	intTD := codec.Primitive(codec.KindInt32)
	sig := &procrpc.ProcedureSignature{
		Procedure:  "F",
		ReturnType: intTD,
		Invoker:    func([]any) procrpc.Outcome { return procrpc.Done(nil) },
	}
	if err := reg.Register(&procrpc.ServiceDescriptor{Name: "Svc", Procedures: []*procrpc.ProcedureSignature{sig}}); err != nil {
		t.Fatal(err)
	}
	resp := firstResponse(t, disp, &procrpc.Request{Service: "Svc", Procedure: "F"})
	if resp.Error == "" {
		t.Fatal("expected NullReturn error")
	}
	if got, want := resp.Error[:len("NullReturn")], "NullReturn"; got != want {
		t.Errorf("error prefix = %q, want %q", got, want)
	}
}

func TestPanicBecomesProcedureFailed(t *testing.T) {
	reg, _, disp := newFixture()
	sig := &procrpc.ProcedureSignature{
		Procedure:  "Boom",
		ReturnType: codec.Void(),
		Invoker:    func([]any) procrpc.Outcome { panic("kaboom") },
	}
	if err := reg.Register(&procrpc.ServiceDescriptor{Name: "Svc", Procedures: []*procrpc.ProcedureSignature{sig}}); err != nil {
		t.Fatal(err)
	}
	resp := firstResponse(t, disp, &procrpc.Request{Service: "Svc", Procedure: "Boom"})
	if resp.Error == "" {
		t.Fatal("expected ProcedureFailed error")
	}
	if got, want := resp.Error[:len("ProcedureFailed")], "ProcedureFailed"; got != want {
		t.Errorf("error prefix = %q, want %q", got, want)
	}
}

func TestDuplicateDictKeyOnDecode(t *testing.T) {
	intTD := codec.Primitive(codec.KindInt32)
	strTD := codec.Primitive(codec.KindString)
	dictTD := codec.Dictionary(intTD, strTD)

	one := encode(t, int32(1), intTD)
	a := encode(t, "a", strTD)
	b := encode(t, "b", strTD)

	entry := func(k, v []byte) []byte {
		var e []byte
		e = appendLenField(e, 1, k)
		e = appendLenField(e, 2, v)
		return e
	}
	var buf []byte
	buf = appendLenField(buf, 1, entry(one, a))
	buf = appendLenField(buf, 1, entry(one, b))

	if _, err := codec.Decode(buf, dictTD); err == nil {
		t.Error("expected InvalidArgument for duplicate dictionary key")
	}
}

func appendLenField(buf []byte, num int, v []byte) []byte {
	buf = append(buf, byte(num<<3)|2) // wire type 2 = length-delimited
	n := uint64(len(v))
	for n >= 0x80 {
		buf = append(buf, byte(n)|0x80)
		n >>= 7
	}
	buf = append(buf, byte(n))
	return append(buf, v...)
}

// firstResponse runs req through disp synchronously via a one-client
// scheduler, draining ticks until a terminal Response is produced. Tests
// that never yield complete in a single tick.
func firstResponse(t *testing.T, disp *procrpc.Dispatcher, req *procrpc.Request) *procrpc.Response {
	t.Helper()
	sched := procrpc.NewScheduler(disp)
	var resp *procrpc.Response
	sched.Submit("test-client", req, func(r *procrpc.Response) { resp = r })
	for i := 0; i < 20 && resp == nil; i++ {
		sched.Tick()
	}
	if resp == nil {
		t.Fatal("request never completed")
	}
	return resp
}
