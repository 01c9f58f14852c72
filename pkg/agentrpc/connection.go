package agentrpc

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Connection is a duplex line-delimited JSON-RPC-shaped transport, usable
// over stdio or a single accepted TCP connection. Reads run on a dedicated
// goroutine feeding a channel MED selects on, the same ReadPump/channel
// shape the teacher uses for its WebSocket connections, adapted from
// framed WebSocket messages to newline-delimited JSON.
type Connection struct {
	logger *zap.Logger

	reader *bufio.Reader
	writer io.Writer
	closer io.Closer

	incoming chan Envelope
	done     chan struct{}

	writeMu sync.Mutex
}

// NewConnection wraps rw (stdio pipes concatenated, or a net.Conn) into a
// Connection and starts its read pump.
func NewConnection(r io.Reader, w io.Writer, c io.Closer, logger *zap.Logger) *Connection {
	conn := &Connection{
		logger:   logger,
		reader:   bufio.NewReader(r),
		writer:   w,
		closer:   c,
		incoming: make(chan Envelope, 64),
		done:     make(chan struct{}),
	}
	go conn.readPump()
	return conn
}

// Incoming is the channel MED selects on for inbound requests/notifications/responses.
func (c *Connection) Incoming() <-chan Envelope {
	return c.incoming
}

// Done is closed once the read pump observes EOF or an unrecoverable error.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) readPump() {
	defer close(c.incoming)
	defer close(c.done)
	for {
		line, err := c.reader.ReadBytes('\n')
		if len(line) > 0 {
			var env Envelope
			if uerr := json.Unmarshal(line, &env); uerr != nil {
				if c.logger != nil {
					c.logger.Warn("malformed agent rpc line", zap.Error(uerr))
				}
			} else {
				c.incoming <- env
			}
		}
		if err != nil {
			return
		}
	}
}

// Send writes one envelope as a single line. Safe for concurrent use.
func (c *Connection) Send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.writer.Write(data)
	return err
}

// Close closes the underlying transport, if closable.
func (c *Connection) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// SendResult replies to a request with a successful result.
func (c *Connection) SendResult(id json.RawMessage, result interface{}) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.Send(Envelope{JSONRPC: "2.0", ID: id, Result: data})
}

// SendError replies to a request with an RPC-level error.
func (c *Connection) SendError(id json.RawMessage, code int, message string) error {
	return c.Send(Envelope{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}})
}

// SendRequest sends a GM-originated request (channels/incoming, pushEvent)
// with the given id and params.
func (c *Connection) SendRequest(id json.RawMessage, method string, params interface{}) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return c.Send(Envelope{JSONRPC: "2.0", ID: id, Method: method, Params: data})
}

// SendNotification sends a method call with no id — no reply is expected.
func (c *Connection) SendNotification(method string, params interface{}) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return c.Send(Envelope{JSONRPC: "2.0", Method: method, Params: data})
}
