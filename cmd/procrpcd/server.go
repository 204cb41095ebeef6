// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/audit"
	"github.com/orbitalsoft/procrpc/bootstrap"
	"github.com/orbitalsoft/procrpc/internal/config"
	"github.com/orbitalsoft/procrpc/objectstore"
	"github.com/orbitalsoft/procrpc/session"
	"github.com/orbitalsoft/procrpc/transport"
)

const logPrefix = "procrpcd:server"

// Registrar adds one or more domain services to reg before the server
// starts accepting connections. The reference binary only registers the
// bootstrap Core service; a non-nil Registrar passed to Run supplies domain
// procedures here.
type Registrar func(reg *procrpc.Registry) error

// Run loads configuration from the environment, wires the dispatch core
// together with a transport listener and a ticking Scheduler, and blocks
// until SIGINT or SIGTERM, then shuts down gracefully.
func Run(registerDomain Registrar) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%s - %w", logPrefix, err)
	}
	setupLogging(cfg.LogLevel)

	slog.Info(fmt.Sprintf("%s - starting, protocol version %s", logPrefix, cfg.ProtocolVersion))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := objectstore.New()
	reg := procrpc.NewRegistry()
	if registerDomain != nil {
		if err := registerDomain(reg); err != nil {
			return fmt.Errorf("%s - register domain services: %w", logPrefix, err)
		}
	}

	ticks := uint64(0)
	coreDesc := bootstrap.NewDescriptor(reg, cfg.ProtocolVersion, func() uint64 { return ticks })
	if err := reg.Register(coreDesc); err != nil {
		return fmt.Errorf("%s - register Core: %w", logPrefix, err)
	}

	sink, closeSink, err := buildAuditSink(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s - %w", logPrefix, err)
	}
	defer closeSink()

	disp := procrpc.NewDispatcher(reg, store, procrpc.ContextProviderFunc(func() procrpc.ActivityContext {
		return procrpc.ActivityContext("")
	}))
	disp.Audit = sink
	sched := procrpc.NewScheduler(disp)

	acc, closeAcc, err := buildAccepter(cfg)
	if err != nil {
		return fmt.Errorf("%s - %w", logPrefix, err)
	}
	defer closeAcc()

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- session.Listen(ctx, acc, session.Handler{Scheduler: sched})
	}()

	tickStop := make(chan struct{})
	go runTicks(sched, cfg.TickInterval, &ticks, tickStop)

	slog.Info(fmt.Sprintf("%s - ready, listening on %s", logPrefix, cfg.ListenAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info(fmt.Sprintf("%s - received signal %s, shutting down", logPrefix, sig))
	case err := <-listenErr:
		if err != nil {
			slog.Error(fmt.Sprintf("%s - listener exited: %v", logPrefix, err))
		}
	}

	close(tickStop)
	cancel()
	slog.Info(fmt.Sprintf("%s - shutdown complete", logPrefix))
	return nil
}

func runTicks(sched *procrpc.Scheduler, interval time.Duration, ticks *uint64, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			*ticks++
			sched.Tick()
		case <-stop:
			return
		}
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func buildAuditSink(ctx context.Context, cfg *config.Config) (procrpc.AuditSink, func(), error) {
	if cfg.AuditDSN == "" {
		return audit.NoOp{}, func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.AuditDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect audit database: %w", err)
	}
	sink := audit.NewPgSink(pool, cfg.AuditWorkers)
	return sink, func() {
		sink.Close()
		pool.Close()
	}, nil
}

func buildAccepter(cfg *config.Config) (transport.Accepter, func(), error) {
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("procrpcd"))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATSURL, err)
		}
		acc, err := transport.NATSAccepter(nc, cfg.NATSSubject)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("subscribe rendezvous subject: %w", err)
		}
		return acc, func() { nc.Drain() }, nil
	}
	lst, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}
	return transport.NetAccepter(lst), func() { lst.Close() }, nil
}
