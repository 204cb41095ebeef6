// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// encodeEnum appends the wire encoding of an enum value to buf. Enums are
// encoded as a signed 32-bit integer using the same zigzag varint as int32.
func encodeEnum(buf []byte, td *TypeDescriptor, v any) ([]byte, error) {
	n, ok := v.(int32)
	if !ok {
		return nil, fmt.Errorf("value %T is not an int32 enum value", v)
	}
	if !td.Values[n] {
		return nil, fmt.Errorf("%d is not a member of the declared enum", n)
	}
	return protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(n))), nil
}

// decodeEnum parses an enum value from the front of data, failing if the
// decoded value is not a member of td's declared value set.
func decodeEnum(data []byte, td *TypeDescriptor) (any, int, error) {
	z, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return nil, 0, fmt.Errorf("malformed enum: %w", protowire.ParseError(n))
	}
	v := int32(protowire.DecodeZigZag(z))
	if !td.Values[v] {
		return nil, 0, fmt.Errorf("%d is not a member of the declared enum", v)
	}
	return v, n, nil
}
