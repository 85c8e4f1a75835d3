package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/holdemgym/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection is one learner session: a WebSocket plus the Env it drives.
// Only readPump touches the Env.
type Connection struct {
	id        int
	conn      *websocket.Conn
	env       *game.Env
	send      chan any
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newConnection(id int, conn *websocket.Conn, env *game.Env, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		id:     id,
		conn:   conn,
		env:    env,
		send:   make(chan any, 16),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down.
func (c *Connection) Done() <-chan struct{} { return c.ctx.Done() }

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

func (c *Connection) sendMessage(msg any) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			_ = c.sendMessage(newErrorMessage(CodeInvalidMessage, err))
			continue
		}
		if err := c.sendMessage(c.handle(req)); err != nil {
			return
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handle runs one request against the Env and builds the reply.
func (c *Connection) handle(req Request) any {
	c.logger.Debug("Received message", "type", req.Type)

	switch req.Type {
	case MessageTypeReset:
		obs, err := c.env.Reset()
		if err != nil {
			c.logger.Error("Reset failed", "error", err)
			return newErrorMessage(CodeInternal, err)
		}
		return newObservationMessage(obs, 0, false, c.env.Record().ID, nil)

	case MessageTypeStep:
		if req.Action == nil {
			return newErrorMessage(CodeInvalidMessage, errors.New("step requires an action"))
		}
		res, err := c.env.Step(*req.Action)
		switch {
		case errors.Is(err, game.ErrNoHand):
			return newErrorMessage(CodeNoHand, err)
		case errors.Is(err, game.ErrHandComplete):
			return newErrorMessage(CodeHandComplete, err)
		case errors.Is(err, game.ErrInvalidSignal):
			return newErrorMessage(CodeInvalidAction, err)
		case err != nil:
			c.logger.Error("Step failed", "error", err)
			return newErrorMessage(CodeInternal, err)
		}
		return newObservationMessage(res.Observation, res.Reward, res.Done, c.env.Record().ID, res.Outcome)

	default:
		return newErrorMessage(CodeInvalidMessage, errors.New("unknown message type "+string(req.Type)))
	}
}
