// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package facade turns raw transport frames into procrpc.Request values and
// serializes procrpc.Response values back, per the wire schemas of
// spec.md §6:
//
//	frame    := varint(length) || message_bytes
//	Request  := { string service = 1; string procedure = 2; repeated Argument arguments = 3 }
//	Argument := { uint32 position = 1; bytes value = 2 }
//	Response := { double time = 1; string error = 2; bytes return_value = 3 }
//
// This package has no behavior beyond framing and message shape; it pins
// the boundary a transport speaks to (see package transport), exactly as
// spec.md §4.G describes the Request/Response façade.
package facade

import (
	"fmt"

	"github.com/orbitalsoft/procrpc"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldRequestService   protowire.Number = 1
	fieldRequestProcedure protowire.Number = 2
	fieldRequestArguments protowire.Number = 3

	fieldArgumentPosition protowire.Number = 1
	fieldArgumentValue    protowire.Number = 2

	fieldResponseTime        protowire.Number = 1
	fieldResponseError       protowire.Number = 2
	fieldResponseReturnValue protowire.Number = 3
)

// EncodeRequest renders req in its protobuf-framed message bytes.
func EncodeRequest(req *procrpc.Request) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldRequestService, protowire.BytesType)
	buf = protowire.AppendString(buf, req.Service)
	buf = protowire.AppendTag(buf, fieldRequestProcedure, protowire.BytesType)
	buf = protowire.AppendString(buf, req.Procedure)
	for _, a := range req.Arguments {
		buf = protowire.AppendTag(buf, fieldRequestArguments, protowire.BytesType)
		buf = protowire.AppendBytes(buf, encodeArgument(a))
	}
	return buf
}

func encodeArgument(a procrpc.Argument) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldArgumentPosition, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(a.Position))
	buf = protowire.AppendTag(buf, fieldArgumentValue, protowire.BytesType)
	buf = protowire.AppendBytes(buf, a.Value)
	return buf
}

// DecodeRequest parses data as a Request message.
func DecodeRequest(data []byte) (*procrpc.Request, error) {
	req := new(procrpc.Request)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("facade: malformed request tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldRequestService:
			s, m, err := consumeString(data, typ)
			if err != nil {
				return nil, fmt.Errorf("facade: request.service: %w", err)
			}
			req.Service, data = s, data[m:]

		case fieldRequestProcedure:
			s, m, err := consumeString(data, typ)
			if err != nil {
				return nil, fmt.Errorf("facade: request.procedure: %w", err)
			}
			req.Procedure, data = s, data[m:]

		case fieldRequestArguments:
			b, m, err := consumeBytes(data, typ)
			if err != nil {
				return nil, fmt.Errorf("facade: request.arguments: %w", err)
			}
			arg, err := decodeArgument(b)
			if err != nil {
				return nil, fmt.Errorf("facade: request.arguments: %w", err)
			}
			req.Arguments = append(req.Arguments, arg)
			data = data[m:]

		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, fmt.Errorf("facade: request: %w", protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return req, nil
}

func decodeArgument(data []byte) (procrpc.Argument, error) {
	var a procrpc.Argument
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return a, fmt.Errorf("malformed argument tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldArgumentPosition:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return a, fmt.Errorf("argument.position: %w", protowire.ParseError(m))
			}
			a.Position, data = uint32(v), data[m:]

		case fieldArgumentValue:
			b, m, err := consumeBytes(data, typ)
			if err != nil {
				return a, fmt.Errorf("argument.value: %w", err)
			}
			a.Value = append([]byte(nil), b...)
			data = data[m:]

		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return a, fmt.Errorf("argument: %w", protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return a, nil
}

// EncodeResponse renders resp in its protobuf-framed message bytes.
func EncodeResponse(resp *procrpc.Response) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldResponseTime, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, doubleBits(resp.Time))
	if resp.Error != "" {
		buf = protowire.AppendTag(buf, fieldResponseError, protowire.BytesType)
		buf = protowire.AppendString(buf, resp.Error)
	}
	if len(resp.ReturnValue) > 0 {
		buf = protowire.AppendTag(buf, fieldResponseReturnValue, protowire.BytesType)
		buf = protowire.AppendBytes(buf, resp.ReturnValue)
	}
	return buf
}

// DecodeResponse parses data as a Response message.
func DecodeResponse(data []byte) (*procrpc.Response, error) {
	resp := new(procrpc.Response)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("facade: malformed response tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldResponseTime:
			v, m := protowire.ConsumeFixed64(data)
			if m < 0 {
				return nil, fmt.Errorf("facade: response.time: %w", protowire.ParseError(m))
			}
			resp.Time, data = doubleFromBits(v), data[m:]

		case fieldResponseError:
			s, m, err := consumeString(data, typ)
			if err != nil {
				return nil, fmt.Errorf("facade: response.error: %w", err)
			}
			resp.Error, data = s, data[m:]

		case fieldResponseReturnValue:
			b, m, err := consumeBytes(data, typ)
			if err != nil {
				return nil, fmt.Errorf("facade: response.return_value: %w", err)
			}
			resp.ReturnValue = append([]byte(nil), b...)
			data = data[m:]

		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, fmt.Errorf("facade: response: %w", protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return resp, nil
}

func consumeString(data []byte, typ protowire.Type) (string, int, error) {
	if typ != protowire.BytesType {
		return "", 0, fmt.Errorf("unexpected wire type %v for string field", typ)
	}
	s, n := protowire.ConsumeString(data)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	return s, n, nil
}

func consumeBytes(data []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("unexpected wire type %v for bytes field", typ)
	}
	b, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return b, n, nil
}
