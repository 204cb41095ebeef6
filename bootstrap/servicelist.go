// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package bootstrap

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/orbitalsoft/procrpc"
)

// ProcedureInfo describes one registered procedure for client-side stub
// generation.
type ProcedureInfo struct {
	Name  string
	Kind  int32
	Arity uint32
}

// ServiceInfo describes one registered service and its procedures.
type ServiceInfo struct {
	Name       string
	Procedures []ProcedureInfo
}

// ServiceList is the payload of Core.GetServices.
type ServiceList struct {
	Services []ServiceInfo
}

const (
	fieldServiceListServices protowire.Number = 1

	fieldServiceInfoName       protowire.Number = 1
	fieldServiceInfoProcedures protowire.Number = 2

	fieldProcedureInfoName  protowire.Number = 1
	fieldProcedureInfoKind  protowire.Number = 2
	fieldProcedureInfoArity protowire.Number = 3
)

// EncodeServiceList renders l as its message bytes.
func EncodeServiceList(l ServiceList) []byte {
	var buf []byte
	for _, svc := range l.Services {
		buf = protowire.AppendTag(buf, fieldServiceListServices, protowire.BytesType)
		buf = protowire.AppendBytes(buf, encodeServiceInfo(svc))
	}
	return buf
}

func encodeServiceInfo(svc ServiceInfo) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldServiceInfoName, protowire.BytesType)
	buf = protowire.AppendString(buf, svc.Name)
	for _, p := range svc.Procedures {
		buf = protowire.AppendTag(buf, fieldServiceInfoProcedures, protowire.BytesType)
		buf = protowire.AppendBytes(buf, encodeProcedureInfo(p))
	}
	return buf
}

func encodeProcedureInfo(p ProcedureInfo) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldProcedureInfoName, protowire.BytesType)
	buf = protowire.AppendString(buf, p.Name)
	buf = protowire.AppendTag(buf, fieldProcedureInfoKind, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(uint32(p.Kind)))
	buf = protowire.AppendTag(buf, fieldProcedureInfoArity, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(p.Arity))
	return buf
}

// DecodeServiceList parses data as a ServiceList message.
func DecodeServiceList(data []byte) (ServiceList, error) {
	var l ServiceList
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return l, fmt.Errorf("bootstrap: malformed service list tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		if num != fieldServiceListServices || typ != protowire.BytesType {
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return l, fmt.Errorf("bootstrap: service list: %w", protowire.ParseError(m))
			}
			data = data[m:]
			continue
		}
		b, m := protowire.ConsumeBytes(data)
		if m < 0 {
			return l, fmt.Errorf("bootstrap: service list entry: %w", protowire.ParseError(m))
		}
		svc, err := decodeServiceInfo(b)
		if err != nil {
			return l, err
		}
		l.Services = append(l.Services, svc)
		data = data[m:]
	}
	return l, nil
}

func decodeServiceInfo(data []byte) (ServiceInfo, error) {
	var svc ServiceInfo
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return svc, fmt.Errorf("bootstrap: malformed service info tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch {
		case num == fieldServiceInfoName && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return svc, fmt.Errorf("bootstrap: service_info.name: %w", protowire.ParseError(m))
			}
			svc.Name, data = v, data[m:]
		case num == fieldServiceInfoProcedures && typ == protowire.BytesType:
			b, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return svc, fmt.Errorf("bootstrap: service_info.procedures: %w", protowire.ParseError(m))
			}
			p, err := decodeProcedureInfo(b)
			if err != nil {
				return svc, err
			}
			svc.Procedures = append(svc.Procedures, p)
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return svc, fmt.Errorf("bootstrap: service_info: %w", protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return svc, nil
}

func decodeProcedureInfo(data []byte) (ProcedureInfo, error) {
	var p ProcedureInfo
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return p, fmt.Errorf("bootstrap: malformed procedure info tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case fieldProcedureInfoName:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return p, fmt.Errorf("bootstrap: procedure_info.name: %w", protowire.ParseError(m))
			}
			p.Name, data = v, data[m:]
		case fieldProcedureInfoKind:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return p, fmt.Errorf("bootstrap: procedure_info.kind: %w", protowire.ParseError(m))
			}
			p.Kind, data = int32(uint32(v)), data[m:]
		case fieldProcedureInfoArity:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return p, fmt.Errorf("bootstrap: procedure_info.arity: %w", protowire.ParseError(m))
			}
			p.Arity, data = uint32(v), data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return p, fmt.Errorf("bootstrap: procedure_info: %w", protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return p, nil
}

// serviceListFromRegistry builds a ServiceList from every service currently
// registered in reg.
func serviceListFromRegistry(reg *procrpc.Registry) ServiceList {
	var l ServiceList
	for _, name := range reg.Services() {
		svc := ServiceInfo{Name: name}
		for _, sig := range reg.Procedures(name) {
			svc.Procedures = append(svc.Procedures, ProcedureInfo{
				Name:  sig.Procedure,
				Kind:  int32(sig.Kind),
				Arity: uint32(sig.Arity()),
			})
		}
		l.Services = append(l.Services, svc)
	}
	return l
}
