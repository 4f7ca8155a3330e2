package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/domain/stream"
	"github.com/GriffinCanCode/accessproxy/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/accessproxy/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errStartFailed = errors.New("session start failed")

// Engine is the session engine the socket drives.
type Engine interface {
	StartSession(ctx context.Context, req stream.StartRequest) stream.Reply
	Interact(ctx context.Context, userID string, in stream.Interaction) stream.Reply
	StopSession(userID string) stream.Reply
}

// Options tunes connection keepalive and origin checks.
type Options struct {
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	// AllowedOrigins lists browser origins that may connect. Empty or "*"
	// allows any origin.
	AllowedOrigins []string
}

// DefaultOptions returns production keepalive settings.
func DefaultOptions() Options {
	return Options{
		PingInterval: 54 * time.Second,
		PongWait:     60 * time.Second,
		WriteWait:    10 * time.Second,
	}
}

// Handler upgrades viewer connections and routes their messages to the
// engine.
type Handler struct {
	engine   Engine
	hub      *Hub
	tracer   *tracing.Tracer
	logger   *zap.Logger
	opts     Options
	upgrader websocket.Upgrader

	starts sync.WaitGroup
}

// NewHandler creates a WebSocket handler. tracer may be nil.
func NewHandler(engine Engine, hub *Hub, tracer *tracing.Tracer, opts Options) *Handler {
	h := &Handler{
		engine: engine,
		hub:    hub,
		tracer: tracer,
		logger: hub.logger,
		opts:   opts,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 || slices.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.opts.AllowedOrigins, origin)
}

// HandleConnection upgrades the request and serves the connection until
// it closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h.hub, conn)
	h.hub.register(client)
	client.logger.Info("WebSocket connection established", zap.String("remote_addr", c.ClientIP()))

	go client.writePump(h.opts.PingInterval, h.opts.WriteWait)
	h.readPump(context.WithoutCancel(c.Request.Context()), client)
}

func (h *Handler) readPump(ctx context.Context, client *Client) {
	defer func() {
		h.hub.unregister(client)
		client.logger.Info("WebSocket connection closed")
	}()

	conn := client.conn
	conn.SetReadLimit(4 * utils.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
		h.dispatch(ctx, client, data)
	}
}

// dispatch handles one inbound frame. Interactions and stops run inline so
// a connection's input keeps its order; starts run in the background
// because they can take as long as a page load plus a login.
func (h *Handler) dispatch(ctx context.Context, client *Client, data []byte) {
	if err := utils.ValidateMessageSize(data); err != nil {
		client.replyError(err.Error())
		return
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.hub.metrics.RecordWSMessage("in", "invalid")
		client.replyError("invalid message format")
		return
	}
	msgType := msg.canonicalType()

	switch msgType {
	case TypePing:
		h.hub.metrics.RecordWSMessage("in", msgType)
		client.reply(TypePong, nil)

	case TypeJoin:
		h.hub.metrics.RecordWSMessage("in", msgType)
		userID, err := decodeJoin(msg.Data)
		if err != nil {
			client.replyError(err.Error())
			return
		}
		h.hub.join(client, userID)
		client.reply(TypeJoined, map[string]string{"userId": userID})

	case TypeStart:
		h.hub.metrics.RecordWSMessage("in", msgType)
		req, err := decodeStart(msg.Data)
		if err != nil {
			client.replyError(err.Error())
			return
		}
		h.hub.join(client, req.UserID)

		span, spanCtx := h.startSpan(ctx, msgType, req.UserID)
		h.starts.Add(1)
		go func() {
			defer h.starts.Done()
			reply := h.engine.StartSession(spanCtx, req)
			h.finishSpan(span, reply)
			h.send(client, reply)
		}()

	case TypeInteraction:
		h.hub.metrics.RecordWSMessage("in", msgType)
		userID, in, err := decodeInteraction(msg.Data)
		if err != nil {
			client.replyError(err.Error())
			return
		}
		reply := h.engine.Interact(ctx, userID, in)
		h.send(client, reply)

	case TypeStop:
		h.hub.metrics.RecordWSMessage("in", msgType)
		userID, err := decodeStop(msg.Data)
		if err != nil {
			client.replyError(err.Error())
			return
		}
		span, _ := h.startSpan(ctx, msgType, userID)
		reply := h.engine.StopSession(userID)
		h.finishSpan(span, reply)
		h.send(client, reply)

	default:
		h.hub.metrics.RecordWSMessage("in", "unknown")
		client.replyError(fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (h *Handler) send(client *Client, reply stream.Reply) {
	if reply.Empty() {
		return
	}
	client.reply(reply.Event, reply.Payload)
}

func (h *Handler) startSpan(ctx context.Context, msgType, userID string) (*tracing.Span, context.Context) {
	if h.tracer == nil {
		return nil, ctx
	}
	span, ctx := h.tracer.StartSpan(ctx, "ws "+msgType)
	span.SetTag("user_id", userID)
	return span, ctx
}

func (h *Handler) finishSpan(span *tracing.Span, reply stream.Reply) {
	if span == nil {
		return
	}
	if reply.Event == stream.EventStreamError {
		span.SetError(errStartFailed)
	}
	if !reply.Empty() {
		span.SetTag("reply", reply.Event)
	}
	span.Finish()
	h.tracer.Submit(span)
}

// Wait blocks until every in-flight start has replied or ctx is done.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.starts.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
