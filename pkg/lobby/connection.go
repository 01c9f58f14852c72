package lobby

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// ErrClosed is returned by Recv when the lobby connection has been closed
// by the peer (read returned EOF).
var ErrClosed = errors.New("lobby connection closed")

// Client is a TCP connection to the lobby server speaking the line-oriented
// wire protocol. It owns no interpretation of message contents — that is
// State's job — only framing and transport.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Connect dials the lobby server at host:port.
func Connect(ctx context.Context, host string, port int) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "dialing lobby server %s:%d", host, port)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Send writes a Message to the wire.
func (c *Client) Send(m Message) error {
	if _, err := c.conn.Write([]byte(m.ToWire())); err != nil {
		return pkgerrors.Wrap(err, "writing lobby message")
	}
	return nil
}

// SendCommand marshals payload and sends it under command.
func (c *Client) SendCommand(command string, payload interface{}) error {
	m, err := NewCommand(command, payload)
	if err != nil {
		return err
	}
	return c.Send(m)
}

// SendPing replies to a server Ping — the only message the client
// auto-replies to (spec.md §4.4).
func (c *Client) SendPing() error {
	return c.Send(Message{Command: "Ping", Data: json.RawMessage("{}")})
}

// Recv blocks until one full line has been read and parsed into a Message.
// Returns ErrClosed on EOF.
func (c *Client) Recv() (Message, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return Message{}, ErrClosed
		}
		if errors.Is(err, io.EOF) {
			return ParseLine(line), nil
		}
		return Message{}, pkgerrors.Wrap(err, "reading lobby line")
	}
	return ParseLine(line), nil
}

// SetReadDeadline forwards to the underlying connection, letting the caller
// bound a single Recv call without blocking the mediator loop indefinitely.
func (c *Client) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Close closes the underlying TCP connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
