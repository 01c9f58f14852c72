package saibridge

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"time"
)

// outboundBufferCap is the bounded outbound buffer cap for the non-blocking
// write policy (spec.md §4.1 policy (b), the "strongly preferred" one).
// This port picks policy (b) over the blocking-toggle policy (a): the
// engine thread must never suspend, and (b) is the only policy that holds
// under a persistently slow or wedged GM peer. When the buffer is over cap,
// the oldest queued bytes are dropped so the newest event survives in full
// (spec.md §8's boundary-behaviour property).
const outboundBufferCap = 256 * 1024

// Client is the plugin-side IPC connection to GameManager. Reads are
// always non-blocking (handleEvent is called every frame and must never
// suspend); writes are buffered in memory and flushed opportunistically by
// a background goroutine, never on the engine thread itself.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader

	mu  sync.Mutex
	buf []byte

	pending []byte // unterminated tail of the last PollCommands read

	closed bool
	done   chan struct{}
}

// Connect dials the Unix socket at path and starts the background flush
// goroutine.
func Connect(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn, reader: bufio.NewReader(conn), done: make(chan struct{})}
	go c.flushLoop()
	return c, nil
}

// SendEvent enqueues ev for delivery. Never blocks: it appends to the
// in-memory buffer (trimming the oldest bytes if over cap) and returns.
func (c *Client) SendEvent(ev Event) error {
	data, err := ev.marshal()
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = append(c.buf, data...)
	if len(c.buf) > outboundBufferCap {
		c.buf = c.buf[len(c.buf)-outboundBufferCap:]
	}
	return nil
}

func (c *Client) flushLoop() {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			pending := c.buf
			c.buf = nil
			c.mu.Unlock()
			if len(pending) == 0 {
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(50 * time.Millisecond))
			if _, err := c.conn.Write(pending); err != nil {
				return
			}
		}
	}
}

// PollCommands performs one non-blocking read pass, returning any complete
// commands received since the last call. Malformed lines are skipped, not
// fatal (spec.md §4.2 parser policy).
func (c *Client) PollCommands(log func(string)) []Command {
	var out []Command
	_ = c.conn.SetReadDeadline(time.Now().Add(time.Millisecond))
	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			c.pending = append(c.pending, line...)
			break
		}
		line = append(c.pending, line...)
		c.pending = nil
		if len(line) > 0 {
			trimmed := trimNL(line)
			if len(trimmed) > 0 {
				cmd, perr := ParseCommand(trimmed)
				if perr != nil {
					if log != nil {
						log("failed to parse command: " + perr.Error())
					}
				} else {
					out = append(out, cmd)
				}
			}
		}
		if err != nil {
			break
		}
	}
	_ = c.conn.SetReadDeadline(time.Time{})
	return out
}

func trimNL(b []byte) []byte {
	n := len(b)
	for n > 0 && (b[n-1] == '\n' || b[n-1] == '\r') {
		n--
	}
	return b[:n]
}

// Close stops the flush goroutine and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	close(c.done)
	return c.conn.Close()
}

// marshalJSON is used by tests to assert exact wire shape without going
// through the buffered Client.
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
