package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace-app-server/internal/config"
	"marketplace-app-server/internal/utils"
)

// Gateway owns the live channel: it authenticates the websocket handshake,
// registers the connection with the presence registry, and runs the
// send/deliver/ack protocol on top of the thread resolver and message log.
type Gateway struct {
	cfg      *config.Config
	registry *PresenceRegistry
	resolver *ThreadResolver
	messages *MessageLog
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewGateway creates a gateway serving live connections.
func NewGateway(db *gorm.DB, cfg *config.Config, registry *PresenceRegistry, logger *zap.Logger) *Gateway {
	return &Gateway{
		cfg:      cfg,
		registry: registry,
		resolver: NewThreadResolver(db),
		messages: NewMessageLog(db),
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Cross-origin policy is handled by the CORS layer on the
			// HTTP surface; the handshake itself is gated by the token.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handle is the gin handler for the websocket endpoint. The bearer
// credential comes with the handshake (Authorization header or token query
// parameter); a missing or invalid credential refuses the connection before
// the upgrade, so no session state ever exists for it.
func (g *Gateway) Handle(c *gin.Context) {
	token := bearerToken(c.Request)
	if token == "" {
		utils.Unauthorized(c, "Authentication error")
		return
	}
	claims, err := utils.ValidateToken(token, g.cfg.JWTSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid token")
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake error response.
		return
	}

	identity := UserRef{ID: claims.UserID, FullName: claims.FullName, UserName: claims.UserName}
	cl := newClient(conn, identity, g.logger)
	g.registry.Register(identity.ID, cl)
	g.logger.Info("user connected", zap.String("userId", identity.ID))

	go cl.writePump()
	g.readLoop(cl)

	g.registry.Deregister(cl)
	cl.close()
	g.logger.Info("user disconnected", zap.String("userId", identity.ID))
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return r.URL.Query().Get("token")
}

func (g *Gateway) readLoop(cl *client) {
	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Envelope
		if err := cl.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.Debug("connection read failed",
					zap.String("userId", cl.identity.ID), zap.Error(err))
			}
			return
		}

		switch frame.Event {
		case EventSendMessage:
			var req SendRequest
			if err := json.Unmarshal(frame.Data, &req); err != nil {
				cl.Push(Event{Event: EventError, Data: ErrorPayload{Message: "malformed sendMessage payload"}})
				continue
			}
			g.handleSend(cl, req)
		default:
			cl.Push(Event{Event: EventError, Data: ErrorPayload{Message: "unknown event: " + frame.Event}})
		}
	}
}

// handleSend runs the pipeline for one message: resolve the thread, append,
// fan out to the recipient, acknowledge the sender. The append is the
// durability point; neither delivery nor the ack happens before it, and a
// failed append produces only an error event.
func (g *Gateway) handleSend(cl *client, req SendRequest) {
	if req.ReceiverID == "" || strings.TrimSpace(req.Content) == "" {
		cl.Push(Event{Event: EventError, Data: ErrorPayload{Message: "receiverId and content are required"}})
		return
	}

	thread, err := g.resolver.Resolve(cl.identity.ID, req.ReceiverID)
	if err != nil {
		g.pushError(cl, err)
		return
	}

	message, err := g.messages.Append(thread.ID, cl.identity.ID, req.Content)
	if err != nil {
		g.pushError(cl, err)
		return
	}

	payload := MessagePayload{
		ID:        message.ID,
		Content:   message.Content,
		Sender:    cl.identity,
		CreatedAt: message.CreatedAt,
	}

	delivered := g.registry.Deliver(req.ReceiverID, Event{
		Event: EventReceiveMessage,
		Data:  DeliverPayload{ThreadID: thread.ID, Message: payload, SenderID: cl.identity.ID},
	})
	g.logger.Debug("message fanned out",
		zap.String("threadId", thread.ID),
		zap.String("messageId", message.ID),
		zap.Int("connections", delivered))

	cl.Push(Event{Event: EventMessageSent, Data: AckPayload{ThreadID: thread.ID, Message: payload}})
}

// pushError maps core errors to what the originating connection sees.
// Validation problems carry their reason; storage failures stay generic.
func (g *Gateway) pushError(cl *client, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		cl.Push(Event{Event: EventError, Data: ErrorPayload{Message: verr.Reason}})
		return
	}
	g.logger.Error("failed to send message",
		zap.String("userId", cl.identity.ID), zap.Error(err))
	cl.Push(Event{Event: EventError, Data: ErrorPayload{Message: "Failed to send message"}})
}
