package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/apperr"
	"github.com/PaulBabatuyi/social-marketplace/internal/data"
)

type startConversationRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Message     string `json:"message" validate:"required,min=1,max=1000"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// compensate undoes the first half of a two-document write. A failure is
// logged and otherwise accepted.
func compensate(ctx context.Context, what string, id bson.ObjectID, del func(context.Context, bson.ObjectID) error) {
	if err := del(context.WithoutCancel(ctx), id); err != nil {
		log.Printf("compensation: delete %s %s: %v", what, id.Hex(), err)
	}
}

// conversationFor runs the path id, fetch and participant checks.
func (s *Server) conversationFor(r *http.Request, caller string) (*data.Conversation, error) {
	id, err := pathID(r, "conversationID", "conversation")
	if err != nil {
		return nil, err
	}
	conv, err := s.conversations.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, apperr.NotFound("conversation not found")
		}
		return nil, err
	}
	if !conv.HasParticipant(caller) {
		return nil, apperr.Forbidden("you are not a participant in this conversation")
	}
	return conv, nil
}

// withMessages loads the conversation's messages and marks the ones the
// other party sent as read, reflecting that in the returned view.
func (s *Server) withMessages(ctx context.Context, conv *data.Conversation, reader string) (conversationWithMessages, error) {
	msgs, err := s.messages.ListByConversation(ctx, conv.ID.Hex())
	if err != nil {
		return conversationWithMessages{}, fmt.Errorf("list messages: %w", err)
	}
	if _, err := s.messages.MarkRead(ctx, conv.ID.Hex(), reader); err != nil {
		return conversationWithMessages{}, fmt.Errorf("mark read: %w", err)
	}
	for _, m := range msgs {
		if m.SenderID != reader {
			m.Read = true
		}
	}
	return conversationWithMessages{Conversation: conv, Messages: msgs}, nil
}

// postMessage stores a message and mirrors it onto the conversation. When
// the mirror update fails the message is removed again.
func (s *Server) postMessage(ctx context.Context, conv *data.Conversation, sender, content string) (*data.Message, error) {
	now := s.now()
	msg := &data.Message{
		ConversationID: conv.ID.Hex(),
		SenderID:       sender,
		Content:        content,
		CreatedAt:      now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := s.conversations.Touch(ctx, conv.ID, content, now); err != nil {
		compensate(ctx, "message", msg.ID, s.messages.Delete)
		return nil, fmt.Errorf("touch conversation: %w", err)
	}
	conv.LastMessage = content
	conv.UpdatedAt = now
	return msg, nil
}

// startConversation sends a first message to a user, reusing the existing
// conversation between the two if there is one.
func (s *Server) startConversation(w http.ResponseWriter, r *http.Request) error {
	caller, err := requireCaller(r)
	if err != nil {
		return err
	}
	var req startConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	recipientID, err := bson.ObjectIDFromHex(req.RecipientID)
	if err != nil {
		return apperr.BadRequest("invalid user id")
	}
	if _, err := s.userOr404(r, recipientID); err != nil {
		return err
	}
	if recipientID.Hex() == caller {
		return apperr.BadRequest("you cannot start a conversation with yourself")
	}

	ctx := r.Context()
	conv, created, err := s.conversations.GetOrCreate(ctx, caller, recipientID.Hex(), s.now())
	if err != nil {
		return fmt.Errorf("get or create conversation: %w", err)
	}
	if _, err := s.postMessage(ctx, conv, caller, req.Message); err != nil {
		if created {
			compensate(ctx, "conversation", conv.ID, s.conversations.Delete)
		}
		return err
	}

	view, err := s.withMessages(ctx, conv, caller)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, view)
	return nil
}

// listConversations returns the caller's conversations, most recently
// active first.
func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) error {
	caller, err := requireCaller(r)
	if err != nil {
		return err
	}
	convs, err := s.conversations.ListFor(r.Context(), caller)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, conversationsResponse{Conversations: convs})
	return nil
}

// getConversation returns a conversation with its messages.
func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) error {
	caller, err := requireCaller(r)
	if err != nil {
		return err
	}
	conv, err := s.conversationFor(r, caller)
	if err != nil {
		return err
	}
	view, err := s.withMessages(r.Context(), conv, caller)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, view)
	return nil
}

// sendMessage appends a message to a conversation the caller takes part in.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) error {
	caller, err := requireCaller(r)
	if err != nil {
		return err
	}
	conv, err := s.conversationFor(r, caller)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	msg, err := s.postMessage(r.Context(), conv, caller, req.Content)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, msg)
	return nil
}

// markConversationRead flags the other party's messages as read.
func (s *Server) markConversationRead(w http.ResponseWriter, r *http.Request) error {
	caller, err := requireCaller(r)
	if err != nil {
		return err
	}
	conv, err := s.conversationFor(r, caller)
	if err != nil {
		return err
	}
	n, err := s.messages.MarkRead(r.Context(), conv.ID.Hex(), caller)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, markedReadResponse{MarkedAsRead: n})
	return nil
}
