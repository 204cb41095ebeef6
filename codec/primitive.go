// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package codec

import (
	"fmt"
	"math"

	"github.com/creachadair/mds/value"
	"google.golang.org/protobuf/encoding/protowire"
)

// encodePrimitive appends the value-only wire encoding of v (which must
// match k) to buf and returns the result.
func encodePrimitive(buf []byte, k Kind, v any) ([]byte, error) {
	switch k {
	case KindInt32:
		n, ok := v.(int32)
		if !ok {
			return nil, fmt.Errorf("value %T is not an int32", v)
		}
		return protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(n))), nil

	case KindInt64:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("value %T is not an int64", v)
		}
		return protowire.AppendVarint(buf, protowire.EncodeZigZag(n)), nil

	case KindUint32:
		n, ok := v.(uint32)
		if !ok {
			return nil, fmt.Errorf("value %T is not a uint32", v)
		}
		return protowire.AppendVarint(buf, uint64(n)), nil

	case KindUint64:
		n, ok := v.(uint64)
		if !ok {
			return nil, fmt.Errorf("value %T is not a uint64", v)
		}
		return protowire.AppendVarint(buf, n), nil

	case KindFloat:
		f, ok := v.(float32)
		if !ok {
			return nil, fmt.Errorf("value %T is not a float32", v)
		}
		return protowire.AppendFixed32(buf, math.Float32bits(f)), nil

	case KindDouble:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("value %T is not a float64", v)
		}
		return protowire.AppendFixed64(buf, math.Float64bits(f)), nil

	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("value %T is not a bool", v)
		}
		return protowire.AppendVarint(buf, value.Cond[uint64](b, 1, 0)), nil

	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("value %T is not a string", v)
		}
		return protowire.AppendString(buf, s), nil

	case KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("value %T is not []byte", v)
		}
		return protowire.AppendBytes(buf, b), nil

	default:
		return nil, fmt.Errorf("%v is not a primitive kind", k)
	}
}

// decodePrimitive parses a value-only wire encoding of kind k from the front
// of data, returning the decoded value and the number of bytes consumed.
func decodePrimitive(data []byte, k Kind) (any, int, error) {
	switch k {
	case KindInt32:
		z, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, fmt.Errorf("malformed int32: %w", protowire.ParseError(n))
		}
		return int32(protowire.DecodeZigZag(z)), n, nil

	case KindInt64:
		z, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, fmt.Errorf("malformed int64: %w", protowire.ParseError(n))
		}
		return protowire.DecodeZigZag(z), n, nil

	case KindUint32:
		z, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, fmt.Errorf("malformed uint32: %w", protowire.ParseError(n))
		}
		return uint32(z), n, nil

	case KindUint64:
		z, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, fmt.Errorf("malformed uint64: %w", protowire.ParseError(n))
		}
		return z, n, nil

	case KindFloat:
		z, n := protowire.ConsumeFixed32(data)
		if n < 0 {
			return nil, 0, fmt.Errorf("malformed float: %w", protowire.ParseError(n))
		}
		return math.Float32frombits(z), n, nil

	case KindDouble:
		z, n := protowire.ConsumeFixed64(data)
		if n < 0 {
			return nil, 0, fmt.Errorf("malformed double: %w", protowire.ParseError(n))
		}
		return math.Float64frombits(z), n, nil

	case KindBool:
		z, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, 0, fmt.Errorf("malformed bool: %w", protowire.ParseError(n))
		}
		return z != 0, n, nil

	case KindString:
		s, n := protowire.ConsumeString(data)
		if n < 0 {
			return nil, 0, fmt.Errorf("malformed string: %w", protowire.ParseError(n))
		}
		return s, n, nil

	case KindBytes:
		b, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, 0, fmt.Errorf("malformed bytes: %w", protowire.ParseError(n))
		}
		return append([]byte(nil), b...), n, nil

	default:
		return nil, 0, fmt.Errorf("%v is not a primitive kind", k)
	}
}
