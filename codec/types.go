// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package codec implements the wire encoding of typed procrpc values.
//
// Primitive scalars are encoded using the real protobuf wire format (varint,
// zigzag, fixed32/64, length-delimited) but carry only the value portion of
// a field, not a tag; the enclosing message field (for example an Argument
// value in the facade package) supplies the tag. Collections (List, Set,
// Dictionary, Tuple) are themselves small fixed-schema protobuf messages and
// so are framed with real field tags.
package codec

import "fmt"

// Kind identifies the shape of a TypeDescriptor.
type Kind int

const (
	KindInt32 Kind = iota
	KindInt64
	KindUint32
	KindUint64
	KindFloat
	KindDouble
	KindBool
	KindString
	KindBytes
	KindEnum
	KindMessage
	KindList
	KindSet
	KindDictionary
	KindTuple
	KindObjectRef
	KindVoid
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindEnum:
		return "enum"
	case KindMessage:
		return "message"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindDictionary:
		return "dictionary"
	case KindTuple:
		return "tuple"
	case KindObjectRef:
		return "object_ref"
	case KindVoid:
		return "void"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// A TypeDescriptor is the tagged-variant type description carried by a
// ProcedureSignature parameter or return value.
//
// Only the fields relevant to Kind are meaningful:
//
//	Kind                 | meaningful fields
//	---------------------+-------------------------------
//	primitives, Void     | (none)
//	Enum                 | Values
//	Message              | MessageName
//	List, Set            | Elem[0]
//	Dictionary           | Elem[0] (key), Elem[1] (value)
//	Tuple                | Elem (one per position)
//	ObjectRef            | ClassID
type TypeDescriptor struct {
	Kind        Kind
	Elem        []*TypeDescriptor
	Values      map[int32]bool // known value set for Enum
	MessageName string
	ClassID     string
}

// Primitive constructs a TypeDescriptor for one of the scalar kinds.
func Primitive(k Kind) *TypeDescriptor { return &TypeDescriptor{Kind: k} }

// Enum constructs a TypeDescriptor for an int32-backed enum with the given
// known values.
func Enum(values ...int32) *TypeDescriptor {
	vs := make(map[int32]bool, len(values))
	for _, v := range values {
		vs[v] = true
	}
	return &TypeDescriptor{Kind: KindEnum, Values: vs}
}

// Message constructs a TypeDescriptor for an opaque protobuf message
// identified by its fully-qualified schema name. The codec does not
// interpret the bytes of a message value; it passes them through unchanged.
func Message(name string) *TypeDescriptor {
	return &TypeDescriptor{Kind: KindMessage, MessageName: name}
}

// List constructs a TypeDescriptor for a homogeneous ordered collection.
func List(elem *TypeDescriptor) *TypeDescriptor {
	return &TypeDescriptor{Kind: KindList, Elem: []*TypeDescriptor{elem}}
}

// Set constructs a TypeDescriptor for a homogeneous deduplicated collection.
func Set(elem *TypeDescriptor) *TypeDescriptor {
	return &TypeDescriptor{Kind: KindSet, Elem: []*TypeDescriptor{elem}}
}

// Dictionary constructs a TypeDescriptor for a key/value map.
func Dictionary(key, value *TypeDescriptor) *TypeDescriptor {
	return &TypeDescriptor{Kind: KindDictionary, Elem: []*TypeDescriptor{key, value}}
}

// Tuple constructs a TypeDescriptor for a fixed-arity heterogeneous list.
func Tuple(elems ...*TypeDescriptor) *TypeDescriptor {
	return &TypeDescriptor{Kind: KindTuple, Elem: elems}
}

// ObjectRef constructs a TypeDescriptor for a handle to a host object of the
// given class.
func ObjectRef(classID string) *TypeDescriptor {
	return &TypeDescriptor{Kind: KindObjectRef, ClassID: classID}
}

// Void is the TypeDescriptor for a procedure with no return value.
func Void() *TypeDescriptor { return &TypeDescriptor{Kind: KindVoid} }

// IsComparableKey reports whether k can be used as a Go map key, which is
// required of Dictionary key element kinds.
func IsComparableKey(k Kind) bool {
	switch k {
	case KindInt32, KindInt64, KindUint32, KindUint64, KindBool, KindString, KindEnum:
		return true
	default:
		return false
	}
}
