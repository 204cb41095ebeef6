// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/creachadair/command"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/codec"
	"github.com/orbitalsoft/procrpc/facade"
)

var encodeRequestCmd = &command.C{
	Name:  "encode-request",
	Usage: "<service> <procedure> [pos:kind:value ...]",
	Help: `Encode a Request message and print it hex-encoded to stdout.

Each trailing argument packs one Argument as "position:kind:value", where
kind is one of int32, int64, uint32, uint64, float, double, bool, string, or
bytes (bytes values are themselves hex-encoded).
`,
	Run: func(env *command.Env) error {
		if len(env.Args) < 2 {
			return env.Usagef("missing service and procedure")
		}
		req := &procrpc.Request{Service: env.Args[0], Procedure: env.Args[1]}
		for _, spec := range env.Args[2:] {
			arg, err := parseArgumentSpec(spec)
			if err != nil {
				return err
			}
			req.Arguments = append(req.Arguments, arg)
		}
		fmt.Println(hex.EncodeToString(facade.EncodeRequest(req)))
		return nil
	},
}

var decodeRequestCmd = &command.C{
	Name:  "decode-request",
	Usage: "[hex-frame]",
	Help:  "Decode a hex-encoded Request frame (read from the argument, or stdin if omitted) and print its fields.",
	Run: func(env *command.Env) error {
		data, err := readFrameArg(env)
		if err != nil {
			return err
		}
		req, err := facade.DecodeRequest(data)
		if err != nil {
			return fmt.Errorf("decode request: %w", err)
		}
		fmt.Printf("service:   %s\n", req.Service)
		fmt.Printf("procedure: %s\n", req.Procedure)
		for _, a := range req.Arguments {
			fmt.Printf("arg[%d]:    %s\n", a.Position, hex.EncodeToString(a.Value))
		}
		return nil
	},
}

var encodeResponseCmd = &command.C{
	Name:  "encode-response",
	Usage: "<error> [kind value]",
	Help: `Encode a Response message and print it hex-encoded to stdout.

Pass an empty string for error to encode success. kind and value, if given,
pack the return value the same way encode-request packs an argument value.
`,
	Run: func(env *command.Env) error {
		if len(env.Args) < 1 {
			return env.Usagef("missing error argument")
		}
		resp := &procrpc.Response{Error: env.Args[0]}
		if len(env.Args) >= 3 {
			v, td, err := parseKindValue(env.Args[1], env.Args[2])
			if err != nil {
				return err
			}
			rv, err := codec.Encode(v, td)
			if err != nil {
				return fmt.Errorf("encode return value: %w", err)
			}
			resp.ReturnValue = rv
		}
		fmt.Println(hex.EncodeToString(facade.EncodeResponse(resp)))
		return nil
	},
}

var decodeResponseCmd = &command.C{
	Name:  "decode-response",
	Usage: "[hex-frame]",
	Help:  "Decode a hex-encoded Response frame (read from the argument, or stdin if omitted) and print its fields.",
	Run: func(env *command.Env) error {
		data, err := readFrameArg(env)
		if err != nil {
			return err
		}
		resp, err := facade.DecodeResponse(data)
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		fmt.Printf("time:         %v\n", resp.Time)
		fmt.Printf("error:        %s\n", resp.Error)
		fmt.Printf("return_value: %s\n", hex.EncodeToString(resp.ReturnValue))
		return nil
	},
}

func readFrameArg(env *command.Env) ([]byte, error) {
	var text string
	if len(env.Args) > 0 {
		text = env.Args[0]
	} else {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(raw))
	}
	data, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid hex frame: %w", err)
	}
	return data, nil
}

func parseArgumentSpec(spec string) (procrpc.Argument, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return procrpc.Argument{}, fmt.Errorf("invalid argument spec %q, want pos:kind:value", spec)
	}
	pos, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return procrpc.Argument{}, fmt.Errorf("invalid argument position %q: %w", parts[0], err)
	}
	v, td, err := parseKindValue(parts[1], parts[2])
	if err != nil {
		return procrpc.Argument{}, err
	}
	value, err := codec.Encode(v, td)
	if err != nil {
		return procrpc.Argument{}, fmt.Errorf("encode argument %d: %w", pos, err)
	}
	return procrpc.Argument{Position: uint32(pos), Value: value}, nil
}

func parseKindValue(kind, value string) (any, *codec.TypeDescriptor, error) {
	switch kind {
	case "int32":
		n, err := strconv.ParseInt(value, 10, 32)
		return int32(n), codec.Primitive(codec.KindInt32), err
	case "int64":
		n, err := strconv.ParseInt(value, 10, 64)
		return n, codec.Primitive(codec.KindInt64), err
	case "uint32":
		n, err := strconv.ParseUint(value, 10, 32)
		return uint32(n), codec.Primitive(codec.KindUint32), err
	case "uint64":
		n, err := strconv.ParseUint(value, 10, 64)
		return n, codec.Primitive(codec.KindUint64), err
	case "float":
		f, err := strconv.ParseFloat(value, 32)
		return float32(f), codec.Primitive(codec.KindFloat), err
	case "double":
		f, err := strconv.ParseFloat(value, 64)
		return f, codec.Primitive(codec.KindDouble), err
	case "bool":
		b, err := strconv.ParseBool(value)
		return b, codec.Primitive(codec.KindBool), err
	case "string":
		return value, codec.Primitive(codec.KindString), nil
	case "bytes":
		b, err := hex.DecodeString(value)
		return b, codec.Primitive(codec.KindBytes), err
	default:
		return nil, nil, fmt.Errorf("unknown kind %q", kind)
	}
}
