package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace-app-server/internal/config"
	"marketplace-app-server/internal/models"
	"marketplace-app-server/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:               "test",
		JWTSecret:                 "test-access-secret",
		JWTRefreshSecret:          "test-refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
	}
}

func newGatewayServer(t *testing.T) (*gorm.DB, *httptest.Server, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	cfg := testConfig()

	router := gin.New()
	registry := NewPresenceRegistry()
	gateway := NewGateway(db, cfg, registry, zap.NewNop())
	router.GET("/ws", gateway.Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return db, server, cfg
}

func accessTokenFor(t *testing.T, cfg *config.Config, user *models.User) string {
	t.Helper()
	access, _, err := utils.GenerateTokens(user, cfg)
	require.NoError(t, err)
	return access
}

func dialWS(t *testing.T, server *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: raw}))
}

func readEvent(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame Envelope
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func Test_Handshake_Rejects_Missing_Token(t *testing.T) {
	req := require.New(t)
	db, server, _ := newGatewayServer(t)

	_, resp, err := dialWS(t, server, "")
	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	var threads int64
	req.NoError(db.Model(&models.Thread{}).Count(&threads).Error)
	req.Zero(threads)
}

func Test_Handshake_Rejects_Expired_Token(t *testing.T) {
	req := require.New(t)
	db, server, cfg := newGatewayServer(t)
	alice := createTestUser(t, db, "Alice A", "alice")

	expiredCfg := *cfg
	expiredCfg.JWTExpirationMinutes = -5
	token := accessTokenFor(t, &expiredCfg, alice)

	_, resp, err := dialWS(t, server, token)
	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func Test_Send_Deliver_Ack_EndToEnd(t *testing.T) {
	req := require.New(t)
	db, server, cfg := newGatewayServer(t)
	log := NewMessageLog(db)

	alice := createTestUser(t, db, "Alice A", "a1")
	bob := createTestUser(t, db, "Bob B", "b1")

	aliceConn, _, err := dialWS(t, server, accessTokenFor(t, cfg, alice))
	req.NoError(err)
	bobConn, _, err := dialWS(t, server, accessTokenFor(t, cfg, bob))
	req.NoError(err)

	sendEvent(t, aliceConn, EventSendMessage, SendRequest{ReceiverID: bob.ID, Content: "hi"})

	// Bob's live connection receives the deliver event.
	frame := readEvent(t, bobConn)
	req.Equal(EventReceiveMessage, frame.Event)
	var deliver DeliverPayload
	req.NoError(json.Unmarshal(frame.Data, &deliver))
	req.Equal(alice.ID, deliver.SenderID)
	req.Equal("hi", deliver.Message.Content)
	req.Equal(alice.ID, deliver.Message.Sender.ID)
	req.Equal("Alice A", deliver.Message.Sender.FullName)

	// Alice's connection receives the ack for the same message.
	frame = readEvent(t, aliceConn)
	req.Equal(EventMessageSent, frame.Event)
	var ack AckPayload
	req.NoError(json.Unmarshal(frame.Data, &ack))
	req.Equal(deliver.ThreadID, ack.ThreadID)
	req.Equal(deliver.Message.ID, ack.Message.ID)

	// Exactly one thread with the canonical pair, one persisted message.
	var threads []models.Thread
	req.NoError(db.Find(&threads).Error)
	req.Len(threads, 1)
	req.True(threads[0].HasParticipant(alice.ID))
	req.True(threads[0].HasParticipant(bob.ID))
	req.Equal("hi", threads[0].LastMessage)

	// A follow-up lands in the same thread, after the first message.
	sendEvent(t, aliceConn, EventSendMessage, SendRequest{ReceiverID: bob.ID, Content: "how are you"})
	frame = readEvent(t, bobConn)
	req.Equal(EventReceiveMessage, frame.Event)
	frame = readEvent(t, aliceConn)
	req.Equal(EventMessageSent, frame.Event)

	req.NoError(db.Find(&threads).Error)
	req.Len(threads, 1, "no second thread for the same pair")

	history, err := log.History(threads[0].ID)
	req.NoError(err)
	req.Len(history, 2)
	req.Equal("hi", history[0].Content)
	req.Equal("how are you", history[1].Content)
}

func Test_Send_Blank_Content_Produces_Error_And_No_Side_Effects(t *testing.T) {
	req := require.New(t)
	db, server, cfg := newGatewayServer(t)

	alice := createTestUser(t, db, "Alice A", "alice")
	bob := createTestUser(t, db, "Bob B", "bob")

	aliceConn, _, err := dialWS(t, server, accessTokenFor(t, cfg, alice))
	req.NoError(err)

	sendEvent(t, aliceConn, EventSendMessage, SendRequest{ReceiverID: bob.ID, Content: "   \t  "})

	frame := readEvent(t, aliceConn)
	req.Equal(EventError, frame.Event)
	var payload ErrorPayload
	req.NoError(json.Unmarshal(frame.Data, &payload))
	req.Equal("receiverId and content are required", payload.Message)

	var threads, messages int64
	req.NoError(db.Model(&models.Thread{}).Count(&threads).Error)
	req.NoError(db.Model(&models.Message{}).Count(&messages).Error)
	req.Zero(threads)
	req.Zero(messages)
}

func Test_Send_To_Self_Produces_Error(t *testing.T) {
	req := require.New(t)
	db, server, cfg := newGatewayServer(t)

	alice := createTestUser(t, db, "Alice A", "alice")
	aliceConn, _, err := dialWS(t, server, accessTokenFor(t, cfg, alice))
	req.NoError(err)

	sendEvent(t, aliceConn, EventSendMessage, SendRequest{ReceiverID: alice.ID, Content: "note to self"})

	frame := readEvent(t, aliceConn)
	req.Equal(EventError, frame.Event)

	var threads int64
	req.NoError(db.Model(&models.Thread{}).Count(&threads).Error)
	req.Zero(threads)

	// The connection stays usable after a validation error.
	bob := createTestUser(t, db, "Bob B", "bob")
	sendEvent(t, aliceConn, EventSendMessage, SendRequest{ReceiverID: bob.ID, Content: "hello bob"})
	frame = readEvent(t, aliceConn)
	req.Equal(EventMessageSent, frame.Event)
}

func Test_Send_To_Offline_Recipient_Still_Acknowledges(t *testing.T) {
	req := require.New(t)
	db, server, cfg := newGatewayServer(t)

	alice := createTestUser(t, db, "Alice A", "alice")
	bob := createTestUser(t, db, "Bob B", "bob")

	aliceConn, _, err := dialWS(t, server, accessTokenFor(t, cfg, alice))
	req.NoError(err)

	sendEvent(t, aliceConn, EventSendMessage, SendRequest{ReceiverID: bob.ID, Content: "anyone home?"})

	frame := readEvent(t, aliceConn)
	req.Equal(EventMessageSent, frame.Event, "ack confirms durability, not receipt")

	var messages int64
	req.NoError(db.Model(&models.Message{}).Count(&messages).Error)
	req.EqualValues(1, messages)
}

func Test_Delivery_Reaches_Every_Connection_Of_Recipient(t *testing.T) {
	req := require.New(t)
	db, server, cfg := newGatewayServer(t)

	alice := createTestUser(t, db, "Alice A", "alice")
	bob := createTestUser(t, db, "Bob B", "bob")

	aliceConn, _, err := dialWS(t, server, accessTokenFor(t, cfg, alice))
	req.NoError(err)
	bobToken := accessTokenFor(t, cfg, bob)
	bobTab1, _, err := dialWS(t, server, bobToken)
	req.NoError(err)
	bobTab2, _, err := dialWS(t, server, bobToken)
	req.NoError(err)

	sendEvent(t, aliceConn, EventSendMessage, SendRequest{ReceiverID: bob.ID, Content: "ping"})

	for _, conn := range []*websocket.Conn{bobTab1, bobTab2} {
		frame := readEvent(t, conn)
		req.Equal(EventReceiveMessage, frame.Event)
		var deliver DeliverPayload
		req.NoError(json.Unmarshal(frame.Data, &deliver))
		req.Equal("ping", deliver.Message.Content)
	}
}

func Test_Unknown_Event_Produces_Error(t *testing.T) {
	req := require.New(t)
	db, server, cfg := newGatewayServer(t)

	alice := createTestUser(t, db, "Alice A", "alice")
	aliceConn, _, err := dialWS(t, server, accessTokenFor(t, cfg, alice))
	req.NoError(err)

	sendEvent(t, aliceConn, "typing", gin.H{"to": "someone"})

	frame := readEvent(t, aliceConn)
	req.Equal(EventError, frame.Event)
}
