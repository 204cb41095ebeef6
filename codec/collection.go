// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// The collection schemas are themselves small protobuf messages with fixed
// field numbers:
//
//	List       { repeated bytes items = 1; }
//	Set        { repeated bytes items = 1; }
//	Tuple      { repeated bytes items = 1; }
//	Dictionary { repeated Entry entries = 1; }
//	Entry      { bytes key = 1; bytes value = 2; }
const (
	fieldItems   protowire.Number = 1
	fieldEntries protowire.Number = 1
	fieldKey     protowire.Number = 1
	fieldValue   protowire.Number = 2
)

func appendLenField(buf []byte, num protowire.Number, v []byte) []byte {
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendBytes(buf, v)
}

// scanFields parses data as a sequence of protobuf fields and returns, for
// each field number, the raw payload of every length-delimited occurrence in
// order. Varint and fixed-width fields are skipped (none of our collection
// schemas use them, but tolerating them keeps the scanner forward
// compatible). It is an error for data to contain a malformed tag or a
// truncated value.
func scanFields(data []byte) (map[protowire.Number][][]byte, error) {
	fields := make(map[protowire.Number][][]byte)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("malformed field tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, fmt.Errorf("malformed field %d: %w", num, protowire.ParseError(m))
			}
			fields[num] = append(fields[num], append([]byte(nil), v...))
			data = data[m:]
		case protowire.VarintType:
			_, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return nil, fmt.Errorf("malformed field %d: %w", num, protowire.ParseError(m))
			}
			data = data[m:]
		case protowire.Fixed32Type:
			_, m := protowire.ConsumeFixed32(data)
			if m < 0 {
				return nil, fmt.Errorf("malformed field %d: %w", num, protowire.ParseError(m))
			}
			data = data[m:]
		case protowire.Fixed64Type:
			_, m := protowire.ConsumeFixed64(data)
			if m < 0 {
				return nil, fmt.Errorf("malformed field %d: %w", num, protowire.ParseError(m))
			}
			data = data[m:]
		default:
			return nil, fmt.Errorf("unsupported wire type %v for field %d", typ, num)
		}
	}
	return fields, nil
}

func encodeSequence(td *TypeDescriptor, items []any) ([]byte, error) {
	elem := td.Elem[0]
	var buf []byte
	for i, it := range items {
		b, err := Encode(it, elem)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		buf = appendLenField(buf, fieldItems, b)
	}
	return buf, nil
}

func decodeList(data []byte, td *TypeDescriptor) (any, error) {
	fields, err := scanFields(data)
	if err != nil {
		return nil, err
	}
	raw := fields[fieldItems]
	out := make([]any, len(raw))
	for i, b := range raw {
		v, err := Decode(b, td.Elem[0])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func encodeSet(td *TypeDescriptor, items []any) ([]byte, error) {
	elem := td.Elem[0]
	var buf []byte
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		b, err := Encode(it, elem)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		key := string(b)
		if seen[key] {
			continue
		}
		seen[key] = true
		buf = appendLenField(buf, fieldItems, b)
	}
	return buf, nil
}

func decodeSet(data []byte, td *TypeDescriptor) (any, error) {
	fields, err := scanFields(data)
	if err != nil {
		return nil, err
	}
	raw := fields[fieldItems]
	out := make([]any, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, b := range raw {
		key := string(b)
		if seen[key] {
			continue
		}
		seen[key] = true
		v, err := Decode(b, td.Elem[0])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func encodeTuple(td *TypeDescriptor, items []any) ([]byte, error) {
	if len(items) != len(td.Elem) {
		return nil, fmt.Errorf("tuple arity mismatch: got %d, want %d", len(items), len(td.Elem))
	}
	var buf []byte
	for i, it := range items {
		b, err := Encode(it, td.Elem[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		buf = appendLenField(buf, fieldItems, b)
	}
	return buf, nil
}

func decodeTuple(data []byte, td *TypeDescriptor) (any, error) {
	fields, err := scanFields(data)
	if err != nil {
		return nil, err
	}
	raw := fields[fieldItems]
	if len(raw) != len(td.Elem) {
		return nil, fmt.Errorf("tuple arity mismatch: got %d, want %d", len(raw), len(td.Elem))
	}
	out := make([]any, len(raw))
	for i, b := range raw {
		v, err := Decode(b, td.Elem[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func encodeDictionary(td *TypeDescriptor, m map[any]any) ([]byte, error) {
	keyType, valType := td.Elem[0], td.Elem[1]
	if !IsComparableKey(keyType.Kind) {
		return nil, fmt.Errorf("dictionary key kind %v is not valid as a map key", keyType.Kind)
	}
	var buf []byte
	for k, v := range m {
		kb, err := Encode(k, keyType)
		if err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
		vb, err := Encode(v, valType)
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		var entry []byte
		entry = appendLenField(entry, fieldKey, kb)
		entry = appendLenField(entry, fieldValue, vb)
		buf = appendLenField(buf, fieldEntries, entry)
	}
	return buf, nil
}

func decodeDictionary(data []byte, td *TypeDescriptor) (any, error) {
	keyType, valType := td.Elem[0], td.Elem[1]
	if !IsComparableKey(keyType.Kind) {
		return nil, fmt.Errorf("dictionary key kind %v is not valid as a map key", keyType.Kind)
	}
	fields, err := scanFields(data)
	if err != nil {
		return nil, err
	}
	out := make(map[any]any, len(fields[fieldEntries]))
	seenKeys := make(map[string]bool, len(fields[fieldEntries]))
	for _, raw := range fields[fieldEntries] {
		ef, err := scanFields(raw)
		if err != nil {
			return nil, fmt.Errorf("entry: %w", err)
		}
		if len(ef[fieldKey]) != 1 || len(ef[fieldValue]) != 1 {
			return nil, fmt.Errorf("entry missing key or value")
		}
		keyRaw := ef[fieldKey][0]
		if seenKeys[string(keyRaw)] {
			return nil, fmt.Errorf("duplicate dictionary key")
		}
		seenKeys[string(keyRaw)] = true

		k, err := Decode(keyRaw, keyType)
		if err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
		v, err := Decode(ef[fieldValue][0], valType)
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		out[k] = v
	}
	return out, nil
}
