// Package wsconn gives a websocket connection a bounded outbound queue drained
// by a single writer, so many goroutines can send to it without blocking and
// messages leave in the order they were queued.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrClosed       = errors.New("connection closed")
	ErrSlowConsumer = errors.New("send buffer full")
)

const writeWait = 5 * time.Second

type Conn struct {
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func New(ws *websocket.Conn, bufferSize int) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
}

// Send encodes v as JSON and queues it. A full queue closes the connection.
func (c *Conn) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.Close()
		return ErrSlowConsumer
	}
}

// WritePump writes queued messages until the connection is closed, ctx is
// done, or a write fails.
func (c *Conn) WritePump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case data := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.Close()
				return err
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close()
				return err
			}
		}
	}
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})

	return err
}
