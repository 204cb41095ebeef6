// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// NullHandle is the reserved handle value denoting a null object reference.
const NullHandle uint64 = 0

// encodeObjectRef appends the wire encoding of an object handle to buf.
// Handles are plain (unsigned, non-zigzag) varints; 0 denotes null.
func encodeObjectRef(buf []byte, v any) ([]byte, error) {
	h, ok := v.(uint64)
	if !ok {
		return nil, fmt.Errorf("value %T is not a handle", v)
	}
	return protowire.AppendVarint(buf, h), nil
}

// decodeObjectRef parses a handle from the front of data. The codec itself
// does not resolve the handle against an object store — callers (the
// argument binder) are responsible for that, per the separation of concerns
// between the wire codec and the object store.
func decodeObjectRef(data []byte) (any, int, error) {
	h, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return nil, 0, fmt.Errorf("malformed object reference: %w", protowire.ParseError(n))
	}
	return h, n, nil
}
