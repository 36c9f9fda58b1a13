package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxMessageLength is the longest chat message accepted, in characters
const MaxMessageLength = 2000

// Stream event types
const (
	EventChatMessage   = "chat_message"
	EventDirectMessage = "direct_message"
)

// StreamEvent is one pushed chat event. ID is the message ID and orders events in a stream.
type StreamEvent struct {
	ID   uint            `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ConversationSummary describes one direct-message conversation of the caller
type ConversationSummary struct {
	Peer        models.User          `json:"peer"`
	LastMessage models.DirectMessage `json:"last_message"`
	UnreadCount int64                `json:"unread_count"`
}

// ChatService stores order and direct messages and pushes them to connected clients
type ChatService struct {
	db     *gorm.DB
	broker Broker
	log    logrus.FieldLogger
}

// NewChatService creates a ChatService
func NewChatService(db *gorm.DB, broker Broker, log logrus.FieldLogger) *ChatService {
	return &ChatService{db: db, broker: broker, log: log}
}

// PostMessage appends a message to an order conversation. Only the order's customer and its
// assigned bakers may post.
func (s *ChatService) PostMessage(ctx context.Context, p Principal, orderID uint, text string) (*models.ChatMessage, error) {
	text, err := cleanMessage(text)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeOrder(ctx, p, orderID); err != nil {
		return nil, err
	}

	msg := models.ChatMessage{OrderID: orderID, SenderID: p.UserID, Message: text}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}
	if err := s.db.WithContext(ctx).Preload("Sender").First(&msg, msg.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load chat message: %w", err)
	}

	s.publish(ctx, EventChatMessage, msg.ID, &msg, orderTopic(orderID))
	return &msg, nil
}

// ListMessages returns an order's messages oldest first. sinceID skips messages the client
// already has.
func (s *ChatService) ListMessages(ctx context.Context, p Principal, orderID, sinceID uint) ([]models.ChatMessage, error) {
	if _, err := s.authorizeOrder(ctx, p, orderID); err != nil {
		return nil, err
	}
	return s.orderMessagesAfter(ctx, orderID, sinceID)
}

// MarkOrderMessagesRead marks the messages other participants sent in an order as read
func (s *ChatService) MarkOrderMessagesRead(ctx context.Context, p Principal, orderID uint) (int64, error) {
	if _, err := s.authorizeOrder(ctx, p, orderID); err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("order_id = ? AND sender_id <> ? AND is_read = ?", orderID, p.UserID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SubscribeOrder opens a live stream of an order's messages. Messages with an ID above
// lastID that were stored before the subscription started are replayed first. Participation
// is checked again before each live event, so a baker taken off the order stops receiving.
func (s *ChatService) SubscribeOrder(ctx context.Context, p Principal, orderID, lastID uint) (*ChatStream, error) {
	if _, err := s.authorizeOrder(ctx, p, orderID); err != nil {
		return nil, err
	}

	sub, err := s.broker.Subscribe(ctx, orderTopic(orderID))
	if err != nil {
		return nil, err
	}

	stream := &ChatStream{sub: sub, lastID: lastID, allow: func(ctx context.Context) error {
		_, err := s.authorizeOrder(ctx, p, orderID)
		return err
	}}
	if lastID > 0 {
		backlog, err := s.orderMessagesAfter(ctx, orderID, lastID)
		if err != nil {
			_ = sub.Close()
			return nil, err
		}
		for i := range backlog {
			if err := stream.queue(EventChatMessage, backlog[i].ID, &backlog[i]); err != nil {
				_ = sub.Close()
				return nil, err
			}
		}
	}
	return stream, nil
}

// PostDirectMessage sends a message from the caller to receiverID
func (s *ChatService) PostDirectMessage(ctx context.Context, p Principal, receiverID uint, text string) (*models.DirectMessage, error) {
	if receiverID == p.UserID {
		return nil, ErrSelfMessage
	}
	text, err := cleanMessage(text)
	if err != nil {
		return nil, err
	}

	var receiver models.User
	if err := s.db.WithContext(ctx).Select("id").First(&receiver, receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load receiver: %w", err)
	}

	msg := models.DirectMessage{SenderID: p.UserID, ReceiverID: receiverID, Message: text}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to save direct message: %w", err)
	}
	if err := s.db.WithContext(ctx).Preload("Sender").First(&msg, msg.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load direct message: %w", err)
	}

	s.publish(ctx, EventDirectMessage, msg.ID, &msg, inboxTopic(receiverID), inboxTopic(p.UserID))
	return &msg, nil
}

// ListConversation returns the messages between the caller and otherID, oldest first
func (s *ChatService) ListConversation(ctx context.Context, p Principal, otherID, sinceID uint) ([]models.DirectMessage, error) {
	var messages []models.DirectMessage
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND id > ?",
			p.UserID, otherID, otherID, p.UserID, sinceID).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	return messages, nil
}

// ListConversations returns one summary per peer the caller has exchanged messages with,
// most recent conversation first
func (s *ChatService) ListConversations(ctx context.Context, p Principal) ([]ConversationSummary, error) {
	db := s.db.WithContext(ctx)

	var heads []struct {
		PeerID uint
		LastID uint
	}
	err := db.Raw(`SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS peer_id, MAX(id) AS last_id
		FROM direct_messages
		WHERE sender_id = ? OR receiver_id = ?
		GROUP BY 1`,
		p.UserID, p.UserID, p.UserID).Scan(&heads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(heads) == 0 {
		return []ConversationSummary{}, nil
	}

	peerIDs := make([]uint, 0, len(heads))
	lastIDs := make([]uint, 0, len(heads))
	for _, h := range heads {
		peerIDs = append(peerIDs, h.PeerID)
		lastIDs = append(lastIDs, h.LastID)
	}

	var peers []models.User
	if err := db.Where("id IN ?", peerIDs).Find(&peers).Error; err != nil {
		return nil, fmt.Errorf("failed to load conversation peers: %w", err)
	}
	peerByID := make(map[uint]models.User, len(peers))
	for _, peer := range peers {
		peerByID[peer.ID] = peer
	}

	var unread []struct {
		SenderID uint
		Count    int64
	}
	err = db.Model(&models.DirectMessage{}).
		Select("sender_id, COUNT(*) AS count").
		Where("receiver_id = ? AND is_read = ?", p.UserID, false).
		Group("sender_id").
		Scan(&unread).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	unreadBySender := make(map[uint]int64, len(unread))
	for _, u := range unread {
		unreadBySender[u.SenderID] = u.Count
	}

	var last []models.DirectMessage
	if err := db.Where("id IN ?", lastIDs).Order("id DESC").Find(&last).Error; err != nil {
		return nil, fmt.Errorf("failed to load last messages: %w", err)
	}

	summaries := make([]ConversationSummary, 0, len(last))
	for _, msg := range last {
		peerID := msg.SenderID
		if peerID == p.UserID {
			peerID = msg.ReceiverID
		}
		peer, ok := peerByID[peerID]
		if !ok {
			continue
		}
		summaries = append(summaries, ConversationSummary{
			Peer:        peer,
			LastMessage: msg,
			UnreadCount: unreadBySender[peerID],
		})
	}
	return summaries, nil
}

// MarkConversationRead marks every message otherID sent to the caller as read
func (s *ChatService) MarkConversationRead(ctx context.Context, p Principal, otherID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.DirectMessage{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", otherID, p.UserID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SubscribeInbox opens a live stream of the direct messages the caller sends or receives
func (s *ChatService) SubscribeInbox(ctx context.Context, p Principal, lastID uint) (*ChatStream, error) {
	sub, err := s.broker.Subscribe(ctx, inboxTopic(p.UserID))
	if err != nil {
		return nil, err
	}

	stream := &ChatStream{sub: sub, lastID: lastID}
	if lastID > 0 {
		var backlog []models.DirectMessage
		err := s.db.WithContext(ctx).
			Preload("Sender").
			Where("(sender_id = ? OR receiver_id = ?) AND id > ?", p.UserID, p.UserID, lastID).
			Order("id ASC").
			Find(&backlog).Error
		if err != nil {
			_ = sub.Close()
			return nil, fmt.Errorf("failed to replay direct messages: %w", err)
		}
		for i := range backlog {
			if err := stream.queue(EventDirectMessage, backlog[i].ID, &backlog[i]); err != nil {
				_ = sub.Close()
				return nil, err
			}
		}
	}
	return stream, nil
}

func (s *ChatService) authorizeOrder(ctx context.Context, p Principal, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Select("id", "user_id", "main_baker_id", "junior_baker_id").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if !order.IsParticipant(p.UserID) {
		return nil, ErrNotParticipant
	}
	return &order, nil
}

func (s *ChatService) orderMessagesAfter(ctx context.Context, orderID, sinceID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("order_id = ? AND id > ?", orderID, sinceID).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}

// publish pushes a stored message. A failed push is logged; the message is already saved
// and reaches clients through the replay query.
func (s *ChatService) publish(ctx context.Context, kind string, id uint, data interface{}, topics ...string) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.WithError(err).Error("Failed to encode chat event")
		return
	}
	payload, err := json.Marshal(StreamEvent{ID: id, Type: kind, Data: raw})
	if err != nil {
		s.log.WithError(err).Error("Failed to encode chat event")
		return
	}
	for _, topic := range topics {
		if err := s.broker.Publish(ctx, topic, payload); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"topic": topic, "message_id": id}).Warn("Failed to publish chat event")
		}
	}
}

func cleanMessage(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", ErrValidation.WithMessage(fmt.Sprintf("Messages are limited to %d characters", MaxMessageLength))
	}
	return text, nil
}

// ChatStream yields replayed then live events in ID order, without repeats
type ChatStream struct {
	sub     Subscription
	backlog []StreamEvent
	lastID  uint
	allow   func(ctx context.Context) error
}

func (s *ChatStream) queue(kind string, id uint, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode chat event: %w", err)
	}
	s.backlog = append(s.backlog, StreamEvent{ID: id, Type: kind, Data: raw})
	return nil
}

// Next blocks until the next event. It returns io.EOF once the subscription has been closed,
// ctx.Err() when ctx is done, and the access error once the caller may no longer listen.
func (s *ChatStream) Next(ctx context.Context) (StreamEvent, error) {
	for {
		if len(s.backlog) > 0 {
			ev := s.backlog[0]
			s.backlog = s.backlog[1:]
			if ev.ID <= s.lastID {
				continue
			}
			s.lastID = ev.ID
			return ev, nil
		}

		select {
		case <-ctx.Done():
			return StreamEvent{}, ctx.Err()
		case payload, ok := <-s.sub.Events():
			if !ok {
				return StreamEvent{}, io.EOF
			}
			var ev StreamEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				continue
			}
			if ev.ID <= s.lastID {
				continue
			}
			if s.allow != nil {
				if err := s.allow(ctx); err != nil {
					return StreamEvent{}, err
				}
			}
			s.lastID = ev.ID
			return ev, nil
		}
	}
}

// LastID is the ID of the last event returned by Next
func (s *ChatStream) LastID() uint {
	return s.lastID
}

// Close ends the subscription
func (s *ChatStream) Close() error {
	return s.sub.Close()
}
