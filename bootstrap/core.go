// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package bootstrap

import (
	semver "github.com/Masterminds/semver/v3"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/codec"
	"github.com/orbitalsoft/procrpc/service"
)

// ServiceName is the conventional name Core is registered under.
const ServiceName = "Core"

// NewDescriptor builds the Core service descriptor: GetStatus, GetServices,
// and CheckClientVersion, registered like any other service (spec.md §6:
// "the core need not reserve these names").
//
// reg is consulted lazily by GetServices on every call, so it reflects
// whatever has been registered by the time a client asks, including Core
// itself. protocolVersion is the running server's own SemVer string,
// checked against a client-supplied constraint by CheckClientVersion.
// uptimeTicks is called to read the current tick count at the moment of
// the call.
func NewDescriptor(reg *procrpc.Registry, protocolVersion string, uptimeTicks func() uint64) *procrpc.ServiceDescriptor {
	return service.New(ServiceName).
		Procedure("GetStatus", nil, codec.Message("procrpc.bootstrap.Status"), func(args []any) procrpc.Outcome {
			return procrpc.Done(EncodeStatus(Status{Version: protocolVersion, UptimeTicks: uptimeTicks()}))
		}).
		Procedure("GetServices", nil, codec.Message("procrpc.bootstrap.ServiceList"), func(args []any) procrpc.Outcome {
			return procrpc.Done(EncodeServiceList(serviceListFromRegistry(reg)))
		}).
		Procedure("CheckClientVersion",
			[]procrpc.Parameter{{Name: "client_version", Type: codec.Primitive(codec.KindString)}},
			codec.Primitive(codec.KindBool),
			func(args []any) procrpc.Outcome {
				return checkClientVersion(protocolVersion, args[0].(string))
			},
		).
		Build()
}

func checkClientVersion(serverVersion, clientConstraint string) procrpc.Outcome {
	constraint, err := semver.NewConstraint(clientConstraint)
	if err != nil {
		return procrpc.Failed(procrpc.Errorf(procrpc.InvalidArgument,
			"malformed client_version constraint %q: %v", clientConstraint, err))
	}
	sv, err := semver.NewVersion(serverVersion)
	if err != nil {
		return procrpc.Failed(procrpc.Errorf(procrpc.ProcedureFailed,
			"server protocol version %q is not valid SemVer: %v", serverVersion, err))
	}
	return procrpc.Done(constraint.Check(sv))
}
