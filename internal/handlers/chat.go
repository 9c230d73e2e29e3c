package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"marketplace-app-server/internal/chat"
	"marketplace-app-server/internal/middleware"
	"marketplace-app-server/internal/models"
	"marketplace-app-server/internal/utils"
)

// ChatHandler serves the request/response side of messaging: the contact
// list and the full history with one counterpart. The live send path goes
// through the websocket gateway instead.
type ChatHandler struct {
	DB        *gorm.DB
	projector *chat.ContactListProjector
	messages  *chat.MessageLog
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(db *gorm.DB) *ChatHandler {
	return &ChatHandler{
		DB:        db,
		projector: chat.NewContactListProjector(db),
		messages:  chat.NewMessageLog(db),
	}
}

// GetContacts handles fetching the authenticated user's conversation list.
func (h *ChatHandler) GetContacts(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	contacts, err := h.projector.ContactsFor(userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch contact list: "+err.Error())
		return
	}

	utils.Success(c, "Contact list fetched", contacts)
}

// ChatMessageView is one message in a history response.
type ChatMessageView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

// ChatHistoryResponse is the full conversation with one counterpart.
// ThreadID is null when the two users have no history yet.
type ChatHistoryResponse struct {
	ThreadID     *string           `json:"threadId"`
	Participants []chat.UserRef    `json:"participants"`
	Messages     []ChatMessageView `json:"messages"`
}

// GetChatHistory handles fetching the conversation between the authenticated
// user and :friendId, messages in append order.
func (h *ChatHandler) GetChatHistory(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	friendID := c.Param("friendId")

	var friend models.User
	if err := h.DB.First(&friend, "id = ?", friendID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var me models.User
	if err := h.DB.First(&me, "id = ?", userID).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	participants := []chat.UserRef{publicUser(&me), publicUser(&friend)}

	first, second := models.CanonicalPair(userID, friendID)
	var thread models.Thread
	err := h.DB.Where("participant_a = ? AND participant_b = ?", first, second).
		First(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Success(c, "No chat yet", ChatHistoryResponse{
			Participants: participants,
			Messages:     []ChatMessageView{},
		})
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	history, err := h.messages.History(thread.ID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch chat history: "+err.Error())
		return
	}

	views := lo.Map(history, func(m models.Message, _ int) ChatMessageView {
		return ChatMessageView{
			ID:        m.ID,
			Content:   m.Content,
			SenderID:  m.SenderID,
			CreatedAt: m.CreatedAt,
			Read:      m.Read,
		}
	})

	utils.Success(c, "Chat history fetched", ChatHistoryResponse{
		ThreadID:     &thread.ID,
		Participants: participants,
		Messages:     views,
	})
}

func publicUser(u *models.User) chat.UserRef {
	return chat.UserRef{ID: u.ID, FullName: u.FullName, UserName: u.UserName}
}
