package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	// ErrChannelClosed is returned by Send after the channel has been
	// closed or its write pump has exited.
	ErrChannelClosed = errors.New("ws: channel closed")

	// ErrSlowClient is returned by Send when the outbound buffer is full.
	ErrSlowClient = errors.New("ws: client not keeping up")
)

// Channel wraps one websocket connection with a buffered, single-writer
// send queue. Frames are JSON text frames written from a dedicated pump
// goroutine; Send never blocks on the network.
type Channel struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func NewChannel(conn *websocket.Conn) *Channel {
	ch := &Channel{
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go ch.writePump()
	return ch
}

func (ch *Channel) writePump() {
	defer ch.conn.Close()
	for {
		select {
		case <-ch.done:
			return
		case msg := <-ch.send:
			if err := ch.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				ch.Close()
				return
			}
		}
	}
}

// Send queues v as one JSON text frame.
func (ch *Channel) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case <-ch.done:
		return ErrChannelClosed
	default:
	}

	select {
	case ch.send <- data:
		return nil
	case <-ch.done:
		return ErrChannelClosed
	default:
		return ErrSlowClient
	}
}

// Close stops the write pump and closes the underlying connection. Safe to
// call more than once; sends after Close return ErrChannelClosed.
func (ch *Channel) Close() error {
	ch.closeOnce.Do(func() {
		close(ch.done)
		ch.conn.Close()
	})
	return nil
}
