// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package procrpc

import "github.com/orbitalsoft/procrpc/codec"

// A ProcedureKind classifies a procedure by the naming grammar parsed from
// its name (spec §4.C / §6):
//
//	<Name>                service-level procedure
//	get_<Name>/set_<Name> service-level property accessor
//	<Class>_<Method>      instance method (param 0 is the receiver)
//	<Class>_get_<Name>    instance property getter (param 0 is the receiver)
//	<Class>_set_<Name>    instance property setter (param 0 is the receiver)
type ProcedureKind int

const (
	ServiceProcedure ProcedureKind = iota
	ServiceGetter
	ServiceSetter
	InstanceMethod
	InstanceGetter
	InstanceSetter
)

// HasReceiver reports whether k implicitly binds parameter 0 to an object
// handle naming the receiver.
func (k ProcedureKind) HasReceiver() bool {
	return k == InstanceMethod || k == InstanceGetter || k == InstanceSetter
}

func (k ProcedureKind) String() string {
	switch k {
	case ServiceProcedure:
		return "ServiceProcedure"
	case ServiceGetter:
		return "ServiceGetter"
	case ServiceSetter:
		return "ServiceSetter"
	case InstanceMethod:
		return "InstanceMethod"
	case InstanceGetter:
		return "InstanceGetter"
	case InstanceSetter:
		return "InstanceSetter"
	default:
		return "ProcedureKind(?)"
	}
}

// A Parameter describes one formal parameter of a procedure.
type Parameter struct {
	Name       string
	Type       *codec.TypeDescriptor
	HasDefault bool
	Default    []byte // wire-encoded default value, valid iff HasDefault
}

// A ProcedureSignature is the registry's immutable description of one
// callable procedure, produced at registration time and never mutated
// afterward.
type ProcedureSignature struct {
	Service   string
	Procedure string
	Kind      ProcedureKind

	// ClassID names the receiver's class for instance methods and instance
	// accessors; empty for service-level procedures.
	ClassID string

	Parameters []Parameter
	ReturnType *codec.TypeDescriptor

	// RequiredContext is the set of activity contexts in which the
	// procedure may be invoked. An empty slice means any context (see
	// AnyContext).
	RequiredContext []ActivityContext

	// Invoker is the bound callable that performs the procedure's effect
	// given materialized argument values. It is supplied by whatever
	// service descriptor builder constructed this signature.
	Invoker Invoker
}

// FullyQualifiedName is the registry key for sig: "Service.Procedure".
func (sig *ProcedureSignature) FullyQualifiedName() string {
	return sig.Service + "." + sig.Procedure
}

// Arity is the declared number of formal parameters.
func (sig *ProcedureSignature) Arity() int { return len(sig.Parameters) }

// validateOptionalSuffix enforces that optional parameters form a suffix of
// the parameter list: once a parameter has a default, every parameter after
// it must also have one.
func (sig *ProcedureSignature) validateOptionalSuffix() error {
	seenOptional := false
	for i, p := range sig.Parameters {
		if p.HasDefault {
			seenOptional = true
			continue
		}
		if seenOptional {
			return Errorf(InvalidArgument, "%s: required parameter %q (position %d) follows an optional parameter",
				sig.FullyQualifiedName(), p.Name, i)
		}
	}
	return nil
}

// An Invoker performs a procedure's effect given its bound, decoded
// argument values (in declared parameter order, receiver included for
// instance procedures) and produces the first Outcome of the call.
//
// Invokers are the only place a computation may suspend: a non-terminal
// Outcome carries the Continuation to resume on the next scheduler tick.
// The codec, binder, registry, and object store never yield.
type Invoker func(args []any) Outcome

// A Continuation is a suspended invocation that can be resumed. Run
// performs one step of work and reports whether the call is done, has
// failed, or must suspend again.
type Continuation interface {
	Run() Outcome
}

// ContinuationFunc adapts a plain function to a Continuation.
type ContinuationFunc func() Outcome

// Run calls f.
func (f ContinuationFunc) Run() Outcome { return f() }

// outcomeKind distinguishes the three terminal/non-terminal shapes an
// Outcome may take.
type outcomeKind int

const (
	outcomeDone outcomeKind = iota
	outcomeFailed
	outcomeYield
)

// An Outcome is the result of invoking a procedure or resuming a
// Continuation: exactly one of Done, Failed, or Yield.
type Outcome struct {
	kind  outcomeKind
	value any
	err   error
	next  Continuation
}

// Done constructs a terminal successful Outcome carrying value, which may
// be nil for a void-returning procedure.
func Done(value any) Outcome { return Outcome{kind: outcomeDone, value: value} }

// Failed constructs a terminal failing Outcome.
func Failed(err error) Outcome { return Outcome{kind: outcomeFailed, err: err} }

// Yield constructs a non-terminal Outcome that suspends execution until the
// scheduler resumes next on a later tick.
func Yield(next Continuation) Outcome { return Outcome{kind: outcomeYield, next: next} }

// IsDone reports whether o is a terminal successful outcome.
func (o Outcome) IsDone() bool { return o.kind == outcomeDone }

// IsFailed reports whether o is a terminal failing outcome.
func (o Outcome) IsFailed() bool { return o.kind == outcomeFailed }

// IsYield reports whether o must be resumed on a later tick.
func (o Outcome) IsYield() bool { return o.kind == outcomeYield }

// Value returns the success value of o. It is meaningful only if IsDone.
func (o Outcome) Value() any { return o.value }

// Err returns the failure of o. It is meaningful only if IsFailed.
func (o Outcome) Err() error { return o.err }

// Next returns the continuation to resume o. It is meaningful only if
// IsYield.
func (o Outcome) Next() Continuation { return o.next }
