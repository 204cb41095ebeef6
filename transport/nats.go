// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATS constructs a Channel backed by a NATS request-subject inbox: a
// "connection" is a subscription to a per-session subject, and frames
// arrive as message payloads in delivery order on that subject. Send
// publishes a frame as a reply on the most recently received message's
// reply subject, so the two directions of a session share one subject
// pair the way a TCP socket shares one pair of byte streams.
//
// This is an alternative carrier for hosts that already run an internal
// message bus in place of raw sockets; the core dispatcher treats it
// exactly like any other Channel.
func NATS(nc *nats.Conn, subject string) (Channel, error) {
	c := &natsChannel{nc: nc, frames: make(chan *nats.Msg, 64), closed: make(chan struct{})}
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		select {
		case c.frames <- msg:
		case <-c.closed:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("transport: subscribe %s: %w", subject, err)
	}
	c.sub = sub
	return c, nil
}

// NATSAccepter returns an Accepter modeling connection setup over NATS: a
// client publishes an empty rendezvous request to rendezvousSubject and
// waits for a reply; Accept answers with a freshly minted per-session
// inbox subject (see nats.NewInbox) for the client to address its actual
// request/reply traffic to, and returns the server-side Channel already
// subscribed to that subject — mirroring the way NetAccepter turns one
// accepted net.Conn into one Channel, except the "accept" here is a NATS
// request/reply handshake rather than a kernel accept(2).
func NATSAccepter(nc *nats.Conn, rendezvousSubject string) (Accepter, error) {
	sub, err := nc.SubscribeSync(rendezvousSubject)
	if err != nil {
		return nil, fmt.Errorf("transport: subscribe rendezvous %s: %w", rendezvousSubject, err)
	}
	return &natsAccepter{sub: sub, nc: nc}, nil
}

type natsAccepter struct {
	sub *nats.Subscription
	nc  *nats.Conn
}

func (a *natsAccepter) Accept(ctx context.Context) (Channel, error) {
	msg, err := a.sub.NextMsgWithContext(ctx)
	if err != nil {
		return nil, err
	}
	if msg.Reply == "" {
		return nil, fmt.Errorf("transport: rendezvous request carried no reply subject")
	}

	inbox := nats.NewInbox()
	ch, err := NATS(a.nc, inbox)
	if err != nil {
		return nil, fmt.Errorf("transport: subscribe session inbox: %w", err)
	}
	if err := a.nc.Publish(msg.Reply, []byte(inbox)); err != nil {
		ch.Close()
		return nil, fmt.Errorf("transport: reply rendezvous: %w", err)
	}
	return ch, nil
}

type natsChannel struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	frames chan *nats.Msg

	mu       sync.Mutex
	closed   chan struct{}
	isClosed bool
	lastMsg  *nats.Msg
}

// Send implements Channel.
func (c *natsChannel) Send(frame []byte) error {
	c.mu.Lock()
	last := c.lastMsg
	c.mu.Unlock()
	if last == nil || last.Reply == "" {
		return fmt.Errorf("transport: no reply subject to send on")
	}
	return c.nc.Publish(last.Reply, frame)
}

// Recv implements Channel.
func (c *natsChannel) Recv() ([]byte, error) {
	select {
	case msg, ok := <-c.frames:
		if !ok {
			return nil, ErrClosed
		}
		c.mu.Lock()
		c.lastMsg = msg
		c.mu.Unlock()
		return msg.Data, nil
	case <-c.closed:
		return nil, ErrClosed
	}
}

// Close implements Channel.
func (c *natsChannel) Close() error {
	c.mu.Lock()
	if c.isClosed {
		c.mu.Unlock()
		return nil
	}
	c.isClosed = true
	c.mu.Unlock()
	close(c.closed)
	return c.sub.Unsubscribe()
}
