package controllers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/sirupsen/logrus"
)

// keepAliveInterval is how often an idle stream sends a ping event
const keepAliveInterval = 15 * time.Second

// PostChatRequest represents the request body for an order chat message
type PostChatRequest struct {
	OrderID uint   `json:"order_id" binding:"required"`
	Message string `json:"message"`
}

// PostDirectRequest represents the request body for a direct message
type PostDirectRequest struct {
	ReceiverID uint   `json:"receiver_id" binding:"required"`
	Message    string `json:"message"`
}

// ChatController serves order chats and direct messages, including their live streams
type ChatController struct {
	chat    *services.ChatService
	log     logrus.FieldLogger
	streams context.Context
}

// NewChatController creates a ChatController
func NewChatController(chat *services.ChatService, log logrus.FieldLogger) *ChatController {
	return &ChatController{chat: chat, log: log, streams: context.Background()}
}

// EndStreamsOn ends every open event stream once ctx is done
func (ctl *ChatController) EndStreamsOn(ctx context.Context) {
	ctl.streams = ctx
}

// PostMessage handles POST /api/chats
func (ctl *ChatController) PostMessage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req PostChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	msg, err := ctl.chat.PostMessage(c.Request.Context(), p, req.OrderID, req.Message)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.CreatedResponse(c, msg)
}

// ListMessages handles GET /api/chats/:orderId?since=
func (ctl *ChatController) ListMessages(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}

	messages, err := ctl.chat.ListMessages(c.Request.Context(), p, orderID, optionalUint(c.Query("since")))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, messages)
}

// MarkRead handles PATCH /api/chats/:orderId/read
func (ctl *ChatController) MarkRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}

	updated, err := ctl.chat.MarkOrderMessagesRead(c.Request.Context(), p, orderID)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"updated": updated})
}

// StreamOrder handles GET /api/chats/:orderId/stream as Server-Sent Events
func (ctl *ChatController) StreamOrder(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}

	stream, err := ctl.chat.SubscribeOrder(c.Request.Context(), p, orderID, lastEventID(c))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	defer stream.Close()

	ctl.serveStream(c, stream)
}

// ListConversations handles GET /api/direct-messages
func (ctl *ChatController) ListConversations(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	conversations, err := ctl.chat.ListConversations(c.Request.Context(), p)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, conversations)
}

// ListConversation handles GET /api/direct-messages/:userId?since=. Reading a conversation
// marks the messages received in it as read.
func (ctl *ChatController) ListConversation(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	otherID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	messages, err := ctl.chat.ListConversation(c.Request.Context(), p, otherID, optionalUint(c.Query("since")))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	if _, err := ctl.chat.MarkConversationRead(c.Request.Context(), p, otherID); err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, messages)
}

// PostDirectMessage handles POST /api/direct-messages
func (ctl *ChatController) PostDirectMessage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req PostDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	msg, err := ctl.chat.PostDirectMessage(c.Request.Context(), p, req.ReceiverID, req.Message)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.CreatedResponse(c, msg)
}

// StreamInbox handles GET /api/direct-messages/stream as Server-Sent Events
func (ctl *ChatController) StreamInbox(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	stream, err := ctl.chat.SubscribeInbox(c.Request.Context(), p, lastEventID(c))
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	defer stream.Close()

	ctl.serveStream(c, stream)
}

func (ctl *ChatController) serveStream(c *gin.Context, stream *services.ChatStream) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	stop := context.AfterFunc(ctl.streams, cancel)
	defer stop()

	done := make(chan struct{})
	defer close(done)

	events := make(chan services.StreamEvent)
	go func() {
		defer close(events)
		for {
			ev, err := stream.Next(ctx)
			if err != nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.Render(-1, sse.Event{
				Id:    strconv.FormatUint(uint64(ev.ID), 10),
				Event: ev.Type,
				Data:  ev.Data,
			})
			return true
		case <-ticker.C:
			c.SSEvent("ping", strconv.FormatInt(time.Now().Unix(), 10))
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// lastEventID is the ID of the last event the client saw, from the Last-Event-ID header sent
// on EventSource reconnects or from the since query parameter
func lastEventID(c *gin.Context) uint {
	if id := c.GetHeader("Last-Event-ID"); id != "" {
		return optionalUint(id)
	}
	return optionalUint(c.Query("since"))
}
