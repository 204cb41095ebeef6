// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package codec

import "fmt"

// Encode renders v, which must be the Go representation appropriate to td
// (see the per-Kind documentation on TypeDescriptor), into its wire bytes.
func Encode(v any, td *TypeDescriptor) ([]byte, error) {
	switch td.Kind {
	case KindInt32, KindInt64, KindUint32, KindUint64, KindFloat, KindDouble, KindBool, KindString, KindBytes:
		return encodePrimitive(nil, td.Kind, v)

	case KindEnum:
		return encodeEnum(nil, td, v)

	case KindMessage:
		return encodeMessage(v)

	case KindObjectRef:
		return encodeObjectRef(nil, v)

	case KindList:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("value %T is not a list", v)
		}
		return encodeSequence(td, items)

	case KindSet:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("value %T is not a set", v)
		}
		return encodeSet(td, items)

	case KindDictionary:
		m, ok := v.(map[any]any)
		if !ok {
			return nil, fmt.Errorf("value %T is not a dictionary", v)
		}
		return encodeDictionary(td, m)

	case KindTuple:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("value %T is not a tuple", v)
		}
		return encodeTuple(td, items)

	case KindVoid:
		if v != nil {
			return nil, fmt.Errorf("value %T supplied for void type", v)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported type descriptor kind %v", td.Kind)
	}
}

// Decode parses data as a value of the type described by td. data must be
// exactly the encoding of one value with no trailing bytes, except for
// KindMessage, which consumes the whole of data as opaque message bytes.
func Decode(data []byte, td *TypeDescriptor) (any, error) {
	switch td.Kind {
	case KindInt32, KindInt64, KindUint32, KindUint64, KindFloat, KindDouble, KindBool, KindString, KindBytes:
		v, n, err := decodePrimitive(data, td.Kind)
		if err != nil {
			return nil, err
		}
		if n != len(data) {
			return nil, fmt.Errorf("%d trailing byte(s) after %v value", len(data)-n, td.Kind)
		}
		return v, nil

	case KindEnum:
		v, n, err := decodeEnum(data, td)
		if err != nil {
			return nil, err
		}
		if n != len(data) {
			return nil, fmt.Errorf("%d trailing byte(s) after enum value", len(data)-n)
		}
		return v, nil

	case KindMessage:
		v, _, err := decodeMessage(data)
		return v, err

	case KindObjectRef:
		v, n, err := decodeObjectRef(data)
		if err != nil {
			return nil, err
		}
		if n != len(data) {
			return nil, fmt.Errorf("%d trailing byte(s) after object reference", len(data)-n)
		}
		return v, nil

	case KindList:
		return decodeList(data, td)

	case KindSet:
		return decodeSet(data, td)

	case KindDictionary:
		return decodeDictionary(data, td)

	case KindTuple:
		return decodeTuple(data, td)

	case KindVoid:
		if len(data) != 0 {
			return nil, fmt.Errorf("non-empty data for void type")
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported type descriptor kind %v", td.Kind)
	}
}
