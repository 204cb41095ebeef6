// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package procrpc

import (
	"github.com/orbitalsoft/procrpc/codec"
	"github.com/orbitalsoft/procrpc/objectstore"
)

// BindArguments decodes req's wire arguments against sig's parameter list,
// producing the ordered tuple of Go values ready to hand to sig.Invoker.
// Omitted optional parameters are filled from their declared defaults;
// ObjectRef parameters are resolved against store.
//
// The binder does not itself invoke anything and never yields: binding is
// atomic with respect to the request, per the core's concurrency model.
func BindArguments(sig *ProcedureSignature, args []Argument, store *objectstore.Store) ([]any, error) {
	arity := sig.Arity()
	slots := make([][]byte, arity)
	filled := make([]bool, arity)

	for _, a := range args {
		if int(a.Position) >= arity {
			return nil, Errorf(InvalidArgument, "%s: position %d exceeds arity %d",
				sig.FullyQualifiedName(), a.Position, arity)
		}
		if filled[a.Position] {
			return nil, Errorf(InvalidArgument, "%s: duplicate argument at position %d",
				sig.FullyQualifiedName(), a.Position)
		}
		slots[a.Position] = a.Value
		filled[a.Position] = true
	}

	bound := make([]any, arity)
	for i, p := range sig.Parameters {
		var raw []byte
		switch {
		case filled[i]:
			raw = slots[i]
		case p.HasDefault:
			raw = p.Default
		default:
			return nil, Errorf(MissingArgument, "%s: parameter %q (position %d)",
				sig.FullyQualifiedName(), p.Name, i)
		}

		v, err := decodeParameter(sig, p, i, raw, store)
		if err != nil {
			return nil, err
		}
		bound[i] = v
	}
	return bound, nil
}

func decodeParameter(sig *ProcedureSignature, p Parameter, position int, raw []byte, store *objectstore.Store) (any, error) {
	if p.Type.Kind != codec.KindObjectRef {
		v, err := codec.Decode(raw, p.Type)
		if err != nil {
			return nil, Errorf(InvalidArgument, "%s: parameter %q (position %d): %v",
				sig.FullyQualifiedName(), p.Name, position, err)
		}
		return v, nil
	}

	handle, err := codec.Decode(raw, p.Type)
	if err != nil {
		return nil, Errorf(InvalidArgument, "%s: parameter %q (position %d): %v",
			sig.FullyQualifiedName(), p.Name, position, err)
	}
	h := handle.(uint64)

	isReceiver := position == 0 && sig.Kind.HasReceiver()
	if h == objectstore.NullHandle {
		if isReceiver {
			return nil, Errorf(NullReference, "%s: null receiver", sig.FullyQualifiedName())
		}
		return nil, nil
	}

	obj, err := store.Get(h)
	if err != nil {
		return nil, Errorf(UnknownHandle, "%s: parameter %q (position %d): handle %d",
			sig.FullyQualifiedName(), p.Name, position, h)
	}
	return obj, nil
}
