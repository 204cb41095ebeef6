// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/bootstrap"
	"github.com/orbitalsoft/procrpc/facade"
	"github.com/orbitalsoft/procrpc/transport"
)

var statusFlags struct {
	Addr    string        `flag:"addr,localhost:8420,server address to dial"`
	Timeout time.Duration `flag:"timeout,5s,round-trip timeout"`
}

var statusCmd = &command.C{
	Name:  "status",
	Usage: "[--addr host:port] [--timeout dur]",
	Help:  "Dial a running procrpcd over TCP and print its Core.GetStatus response.",
	SetFlags: func(env *command.Env, fs *flag.FlagSet) {
		flax.MustBind(fs, &statusFlags)
	},
	Run: func(env *command.Env) error {
		ch, err := transport.DialTCP(statusFlags.Addr)
		if err != nil {
			return fmt.Errorf("dial %s: %w", statusFlags.Addr, err)
		}
		defer ch.Close()

		timer := time.AfterFunc(statusFlags.Timeout, func() { ch.Close() })
		defer timer.Stop()

		req := &procrpc.Request{Service: bootstrap.ServiceName, Procedure: "GetStatus"}
		if err := ch.Send(facade.EncodeRequest(req)); err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		frame, err := ch.Recv()
		if err != nil {
			return fmt.Errorf("receive response: %w", err)
		}
		resp, err := facade.DecodeResponse(frame)
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if resp.Error != "" {
			return fmt.Errorf("server error: %s", resp.Error)
		}
		status, err := bootstrap.DecodeStatus(resp.ReturnValue)
		if err != nil {
			return fmt.Errorf("decode status: %w", err)
		}
		fmt.Printf("version:      %s\n", status.Version)
		fmt.Printf("uptime_ticks: %d\n", status.UptimeTicks)
		return nil
	},
}
