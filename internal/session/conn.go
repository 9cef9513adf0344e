// Package session implements the two venue-facing FIX sessions: the market
// data session that drives the strategy and the order entry session that
// opens the readiness gate and runs the demonstration order flow. Each
// session owns one connection; the only state shared between them is the
// strategy state and, when configured, the order route.
package session

import (
	"context"
	"crypto/ed25519"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ismaiel54/fix-trading-bot/internal/fix"
)

// defaultPort is the venue port used when the configured port is 0.
const defaultPort = 9000

const readBufferSize = 4096

// Identity is the immutable pair of comp ids a session authenticates with.
type Identity struct {
	SenderCompID string
	TargetCompID string
}

// NewSenderCompID derives a fresh 8-hex-character SenderCompID from a random
// identifier. Each session instance gets its own.
func NewSenderCompID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:8]
}

// DialFunc produces a session's byte stream transport. The core only needs
// read/write/close semantics; tests substitute in-memory pipes.
type DialFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// TLSDialer returns a DialFunc connecting a TLS stream to host:port.
func TLSDialer(host string, port int) DialFunc {
	if port == 0 {
		port = defaultPort
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		d := &tls.Dialer{Config: &tls.Config{ServerName: host}}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
		}
		return conn, nil
	}
}

// Sender serializes outbound messages on one connection, assigning strictly
// increasing sequence numbers in transmission order.
type Sender interface {
	Send(build func(id Identity, seq int) string) error
}

// Conn couples a transport with the frame decoder, the session identity and
// the outbound sequence counter.
type Conn struct {
	rw       io.ReadWriteCloser
	identity Identity
	dec      fix.Decoder

	mu  sync.Mutex
	seq int
}

// NewConn wraps an established transport. The first message sent carries
// sequence number 1.
func NewConn(rw io.ReadWriteCloser, identity Identity) *Conn {
	return &Conn{rw: rw, identity: identity, seq: 1}
}

// Send builds the message with the connection's next sequence number and
// writes it. The lock spans build and write so sequence numbers match the
// order of transmission, even when another goroutine routes orders over
// this connection.
func (c *Conn) Send(build func(id Identity, seq int) string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := build(c.identity, c.seq)
	if _, err := c.rw.Write([]byte(m)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	c.seq++
	return nil
}

// ReadMessage blocks until one complete FIX message is decoded from the
// transport. Partial frames keep accumulating; only a transport error ends
// the stream.
func (c *Conn) ReadMessage() (string, error) {
	var buf [readBufferSize]byte
	for {
		if m, ok := c.dec.Next(); ok {
			return m, nil
		}
		n, err := c.rw.Read(buf[:])
		if n > 0 {
			c.dec.Write(buf[:n])
		}
		if err != nil {
			if m, ok := c.dec.Next(); ok {
				return m, nil
			}
			return "", err
		}
	}
}

// Close closes the underlying transport.
func (c *Conn) Close() error {
	return c.rw.Close()
}

// sendLogon signs and sends the Logon(A) for the session identity. It must
// be the first message on the connection so the signature covers sequence
// number 1.
func sendLogon(c *Conn, key ed25519.PrivateKey, username string) error {
	return c.Send(func(id Identity, seq int) string {
		sendingTime := fix.SendingTime(time.Now())
		rawData := fix.LogonRawData(key, id.SenderCompID, id.TargetCompID, seq, sendingTime)
		return fix.BuildLogon(id.SenderCompID, id.TargetCompID, seq, sendingTime, rawData, username)
	})
}
