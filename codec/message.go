// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package codec

import "fmt"

// A message value's wire representation *is* its protobuf-framed bytes —
// the core does not parse message schemas it does not own, so encoding and
// decoding a Message value is a pass-through. The service that declared the
// parameter is responsible for interpreting (or producing) the bytes with
// its own generated or hand-written message type.

func encodeMessage(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("value %T is not message bytes", v)
	}
	return append([]byte(nil), b...), nil
}

// decodeMessage returns the remainder of data as a message value. Unlike the
// other decoders, a bare message value is not self-delimiting on the wire:
// it is only valid as the entire contents of an Argument or return value,
// never nested inside a List/Set/Dictionary/Tuple element (those wrap each
// element in its own length-delimited slot, so nesting is unambiguous
// there).
func decodeMessage(data []byte) (any, int, error) {
	return append([]byte(nil), data...), len(data), nil
}
