// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Program procrpc is an operator utility for inspecting procrpc wire
// frames and probing a running server, the moral equivalent of the
// source's ad hoc packet-packing tool adapted to this protocol's
// Request/Response/Status schemas.
package main

import (
	"os"
	"path/filepath"

	"github.com/creachadair/command"
)

func main() {
	root := &command.C{
		Name: filepath.Base(os.Args[0]),
		Help: "Inspect procrpc wire frames and probe a running server.",
		Commands: []*command.C{
			encodeRequestCmd,
			decodeRequestCmd,
			encodeResponseCmd,
			decodeResponseCmd,
			statusCmd,
			command.VersionCommand(),
			command.HelpCommand(nil),
		},
	}
	command.RunOrFail(root.NewEnv(nil).MergeFlags(true), os.Args[1:])
}
