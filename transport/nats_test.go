// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package transport

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// startTestServer starts an in-process NATS server for testing.
func startTestServer(t *testing.T, port int) (*nats.Conn, func()) {
	t.Helper()

	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}
	ns, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("transport: new NATS server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("transport: NATS server not ready")
	}

	nc, err := nats.Connect(ns.ClientURL(), nats.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("transport: connect: %v", err)
	}
	return nc, func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}
}

func TestNATSChannelRoundTrip(t *testing.T) {
	nc, cleanup := startTestServer(t, 14231)
	defer cleanup()

	const subject = "procrpc.session.test"
	server, err := NATS(nc, subject)
	if err != nil {
		t.Fatalf("NATS: %v", err)
	}
	defer server.Close()

	replyInbox := nats.NewInbox()
	replySub, err := nc.SubscribeSync(replyInbox)
	if err != nil {
		t.Fatalf("SubscribeSync: %v", err)
	}
	defer replySub.Unsubscribe()

	if err := nc.PublishRequest(subject, replyInbox, []byte("ping")); err != nil {
		t.Fatalf("PublishRequest: %v", err)
	}

	frame, err := server.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(frame) != "ping" {
		t.Fatalf("got %q, want %q", frame, "ping")
	}

	if err := server.Send([]byte("pong")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msg, err := replySub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg: %v", err)
	}
	if string(msg.Data) != "pong" {
		t.Fatalf("got %q, want %q", msg.Data, "pong")
	}
}
