package signaling

import (
	"context"
	"sync"
)

// Pipe creates a connected in-process channel pair: the client-side Conn
// and the agent-side peer. Useful for tests and local simulation.
func Pipe() (Conn, *PipePeer) {
	shared := &pipeShared{
		uplink:   make(chan *Message, 32),
		downlink: make(chan Incoming, 32),
	}
	return &pipeConn{shared: shared}, &PipePeer{shared: shared}
}

// pipeShared holds the channels and close state of a pipe pair. Sends
// run under mu so a concurrent close cannot race a send in flight.
type pipeShared struct {
	uplink   chan *Message // client -> peer
	downlink chan Incoming // peer -> client

	mu         sync.Mutex
	clientErr  error
	clientDone bool
	peerDone   bool
}

// pipeConn is the client side of a pipe.
type pipeConn struct {
	shared *pipeShared
}

func (c *pipeConn) Send(ctx context.Context, msg *Message) error {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	if c.shared.clientDone {
		return ErrClosed
	}

	select {
	case c.shared.uplink <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *pipeConn) Messages() <-chan Incoming {
	return c.shared.downlink
}

func (c *pipeConn) Close() error {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	if c.shared.clientDone {
		return nil
	}
	c.shared.clientDone = true
	close(c.shared.uplink)
	return nil
}

// PipePeer is the agent side of a pipe. Tests script it to play the
// remote conversational agent.
type PipePeer struct {
	shared *pipeShared
}

// Frames returns the stream of messages sent by the client. The channel
// is closed when the client closes its side.
func (p *PipePeer) Frames() <-chan *Message {
	return p.shared.uplink
}

// Send delivers a message to the client.
func (p *PipePeer) Send(msg *Message) error {
	p.shared.mu.Lock()
	defer p.shared.mu.Unlock()
	if p.shared.peerDone {
		return ErrClosed
	}
	p.shared.downlink <- Incoming{Msg: msg}
	return nil
}

// CloseWithError closes the peer side, surfacing err (if non-nil) to the
// client before the message stream ends.
func (p *PipePeer) CloseWithError(err error) {
	p.shared.mu.Lock()
	defer p.shared.mu.Unlock()
	if p.shared.peerDone {
		return
	}
	p.shared.peerDone = true
	if err != nil {
		p.shared.downlink <- Incoming{Err: err}
	}
	close(p.shared.downlink)
}

// Close closes the peer side without an error.
func (p *PipePeer) Close() {
	p.CloseWithError(nil)
}

// PipeDialer is a Dialer that creates a fresh pipe per dial and hands the
// agent side to Accept.
type PipeDialer struct {
	// Accept receives the agent side of each dialed pipe. Required.
	Accept func(sessionID string, peer *PipePeer)
}

// Dial implements Dialer.
func (d *PipeDialer) Dial(_ context.Context, sessionID string) (Conn, error) {
	conn, peer := Pipe()
	go d.Accept(sessionID, peer)
	return conn, nil
}

var _ Conn = (*pipeConn)(nil)
var _ Dialer = (*PipeDialer)(nil)
