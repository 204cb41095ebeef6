// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package bootstrap implements the conventionally-named Core service:
// GetStatus, GetServices, and CheckClientVersion, wired up like any other
// domain service descriptor (see package service). Its two informational
// procedures return small hand-framed protobuf messages, the same way the
// façade frames Request and Response: the core codec treats a Message
// value as opaque bytes (see codec.KindMessage), so Core is responsible for
// its own message schemas.
package bootstrap

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Status reports the running server's protocol version and tick count.
type Status struct {
	Version     string
	UptimeTicks uint64
}

const (
	fieldStatusVersion     protowire.Number = 1
	fieldStatusUptimeTicks protowire.Number = 2
)

// EncodeStatus renders s as its message bytes.
func EncodeStatus(s Status) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldStatusVersion, protowire.BytesType)
	buf = protowire.AppendString(buf, s.Version)
	buf = protowire.AppendTag(buf, fieldStatusUptimeTicks, protowire.VarintType)
	buf = protowire.AppendVarint(buf, s.UptimeTicks)
	return buf
}

// DecodeStatus parses data as a Status message.
func DecodeStatus(data []byte) (Status, error) {
	var s Status
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return s, fmt.Errorf("bootstrap: malformed status tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case fieldStatusVersion:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return s, fmt.Errorf("bootstrap: status.version: %w", protowire.ParseError(m))
			}
			s.Version, data = v, data[m:]
		case fieldStatusUptimeTicks:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return s, fmt.Errorf("bootstrap: status.uptime_ticks: %w", protowire.ParseError(m))
			}
			s.UptimeTicks, data = v, data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return s, fmt.Errorf("bootstrap: status: %w", protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return s, nil
}
