// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package procrpc

import "strings"

// ParseProcedureName classifies a bare procedure name against the core's
// naming grammar (spec §4.C / §6), given the set of class names owned by
// the service. Class names are needed to disambiguate "<Class>_<Method>"
// from a bare name that happens to contain an underscore.
//
// Returns the parsed kind, the receiver class ID (empty unless the kind
// has a receiver), and the member name (the procedure or property name
// with any class/get_/set_ prefix stripped).
func ParseProcedureName(name string, classes []string) (kind ProcedureKind, classID, member string) {
	for _, c := range classes {
		prefix := c + "_"
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := name[len(prefix):]
		switch {
		case strings.HasPrefix(rest, "get_") && len(rest) > len("get_"):
			return InstanceGetter, c, rest[len("get_"):]
		case strings.HasPrefix(rest, "set_") && len(rest) > len("set_"):
			return InstanceSetter, c, rest[len("set_"):]
		case rest != "":
			return InstanceMethod, c, rest
		}
	}

	switch {
	case strings.HasPrefix(name, "get_") && len(name) > len("get_"):
		return ServiceGetter, "", name[len("get_"):]
	case strings.HasPrefix(name, "set_") && len(name) > len("set_"):
		return ServiceSetter, "", name[len("set_"):]
	default:
		return ServiceProcedure, "", name
	}
}
