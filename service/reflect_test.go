// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package service_test

import (
	"errors"
	"testing"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/codec"
	"github.com/orbitalsoft/procrpc/service"
)

type clock struct {
	seconds int64
	fail    bool
}

func (c *clock) GetSeconds() int64 { return c.seconds }

func (c *clock) SetSeconds(v int64) { c.seconds = v }

func (c *clock) Tick() (int64, error) {
	if c.fail {
		return 0, errors.New("tick failed")
	}
	c.seconds++
	return c.seconds, nil
}

func TestFromStructDerivesGetterSetterAndProcedure(t *testing.T) {
	desc, err := service.FromStruct("Clock", &clock{seconds: 41})
	if err != nil {
		t.Fatalf("FromStruct: %v", err)
	}

	byName := map[string]*procrpc.ProcedureSignature{}
	for _, p := range desc.Procedures {
		byName[p.Procedure] = p
	}

	get := byName["get_Seconds"]
	if get == nil || get.Kind != procrpc.ServiceGetter {
		t.Fatalf("get_Seconds = %+v", get)
	}
	if got := get.Invoker(nil); got.Value().(int64) != 41 {
		t.Errorf("get_Seconds invoker = %v", got.Value())
	}

	set := byName["set_Seconds"]
	if set == nil || set.Kind != procrpc.ServiceSetter {
		t.Fatalf("set_Seconds = %+v", set)
	}
	if len(set.Parameters) != 1 || set.Parameters[0].Type.Kind != codec.KindInt64 {
		t.Fatalf("set_Seconds params = %+v", set.Parameters)
	}
	set.Invoker([]any{int64(99)})
	if got := get.Invoker(nil); got.Value().(int64) != 99 {
		t.Errorf("after SetSeconds(99), GetSeconds = %v", got.Value())
	}

	tick := byName["Tick"]
	if tick == nil || tick.Kind != procrpc.ServiceProcedure {
		t.Fatalf("Tick = %+v", tick)
	}
	out := tick.Invoker(nil)
	if !out.IsDone() || out.Value().(int64) != 100 {
		t.Fatalf("Tick invoker = %+v", out)
	}
}

func TestFromStructPropagatesInvokerError(t *testing.T) {
	desc, err := service.FromStruct("Clock", &clock{fail: true})
	if err != nil {
		t.Fatalf("FromStruct: %v", err)
	}
	for _, p := range desc.Procedures {
		if p.Procedure == "Tick" {
			out := p.Invoker(nil)
			if !out.IsFailed() {
				t.Fatalf("Tick invoker = %+v, want Failed", out)
			}
			return
		}
	}
	t.Fatal("Tick procedure not found")
}

type unsupportedParam struct{}

func (unsupportedParam) Weird(m map[string]int) {}

func TestFromStructRejectsUnsupportedType(t *testing.T) {
	if _, err := service.FromStruct("Bad", unsupportedParam{}); err == nil {
		t.Fatal("expected error for unsupported parameter type")
	}
}
