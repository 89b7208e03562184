package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/database"
	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/oracle"
	"github.com/astroconsult/consult-server-go/internal/repository"
	"github.com/astroconsult/consult-server-go/internal/sse"
)

const (
	historySessionLimit = 20
	topicMaxLen         = 60
)

// ProfileReader returns a user's decrypted birth profile.
type ProfileReader interface {
	Profile(ctx context.Context, mobile string) (*model.Profile, error)
}

type ChatService struct {
	tx          database.Transactor
	users       repository.UserRepository
	chats       repository.ChatRepository
	wallets     repository.WalletRepository
	feedback    repository.FeedbackRepository
	profiles    ProfileReader
	responder   oracle.Responder
	events      EventPublisher
	gurujiPrice float64
}

func NewChatService(
	tx database.Transactor,
	users repository.UserRepository,
	chats repository.ChatRepository,
	wallets repository.WalletRepository,
	feedback repository.FeedbackRepository,
	profiles ProfileReader,
	responder oracle.Responder,
	events EventPublisher,
	gurujiPrice float64,
) *ChatService {
	return &ChatService{
		tx:          tx,
		users:       users,
		chats:       chats,
		wallets:     wallets,
		feedback:    feedback,
		profiles:    profiles,
		responder:   responder,
		events:      events,
		gurujiPrice: gurujiPrice,
	}
}

type ChatInput struct {
	Mobile    string              `json:"mobile"`
	Message   string              `json:"message"`
	History   []model.HistoryTurn `json:"history"`
	SessionID string              `json:"session_id"`
}

type ChatResult struct {
	Answer        string             `json:"answer"`
	Assistant     model.Persona      `json:"assistant"`
	Metrics       map[string]any     `json:"metrics,omitempty"`
	Context       string             `json:"context,omitempty"`
	WalletBalance *float64           `json:"wallet_balance,omitempty"`
	Amount        *float64           `json:"amount,omitempty"`
	MayaJSON      *oracle.Structured `json:"maya_json,omitempty"`
	SessionID     string             `json:"session_id"`
}

// Chat answers one user message. Guruji answers are debited in the same
// transaction that stores the exchange; when the wallet cannot cover the
// price Maya asks for a recharge instead and nothing is debited.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	message := strings.TrimSpace(in.Message)
	var fields []apperrors.FieldError
	if message == "" {
		fields = append(fields, apperrors.Field("message", "Message is required"))
	}
	if strings.TrimSpace(in.SessionID) == "" {
		fields = append(fields, apperrors.Field("session_id", "Session id is required"))
	}
	if len(fields) > 0 {
		return nil, apperrors.InvalidFields(fields...)
	}

	user, err := s.users.FindByMobile(ctx, in.Mobile)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	if !user.Status.ChatAllowed() {
		return nil, apperrors.NotReady()
	}

	if err := s.checkSessionOpen(ctx, in.SessionID, in.Mobile); err != nil {
		return nil, err
	}

	profile, err := s.profiles.Profile(ctx, in.Mobile)
	if err != nil {
		return nil, err
	}

	persona := oracle.Route(message)
	var answer *oracle.Answer
	if persona == model.PersonaGuruji {
		balance, err := s.wallets.Balance(ctx, in.Mobile)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if balance < s.gurujiPrice {
			answer = oracle.RechargeReply(balance, s.gurujiPrice)
		}
	}

	if answer == nil {
		turn := oracle.Turn{
			Persona: persona,
			Message: message,
			History: in.History,
			Name:    user.Name,
			Profile: profile,
		}
		if profile != nil {
			turn.Context = profile.Context
		}
		answer, err = s.responder.Reply(ctx, turn)
		if err != nil {
			return nil, apperrors.External("oracle", err)
		}
	}

	var amount *float64
	if answer.Persona == model.PersonaGuruji && s.gurujiPrice > 0 {
		price := s.gurujiPrice
		amount = &price
	}

	var balance float64
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		chats := s.chats.WithTx(tx)
		wallets := s.wallets.WithTx(tx)

		if _, err := chats.EnsureSession(ctx, in.SessionID, in.Mobile, topic(message)); err != nil {
			return apperrors.Database(err)
		}
		if _, err := chats.AddMessage(ctx, model.ChatMessage{
			SessionID: in.SessionID,
			Role:      model.RoleUser,
			Content:   message,
		}); err != nil {
			return apperrors.Database(err)
		}

		if amount != nil {
			newBalance, ok, err := wallets.Debit(ctx, in.Mobile, *amount)
			if err != nil {
				return apperrors.Database(err)
			}
			if !ok {
				return apperrors.InsufficientBalance()
			}
			balance = newBalance
			if _, err := wallets.AddTransaction(ctx, model.CreateTransactionParams{
				Mobile:      in.Mobile,
				Type:        model.TransactionDebit,
				Amount:      *amount,
				Description: "Guruji consultation",
				Reference:   in.SessionID,
			}); err != nil {
				return apperrors.Database(err)
			}
		} else {
			current, err := wallets.Balance(ctx, in.Mobile)
			if err != nil {
				return apperrors.Database(err)
			}
			balance = current
		}

		if _, err := chats.AddMessage(ctx, model.ChatMessage{
			SessionID: in.SessionID,
			Role:      model.RoleAssistant,
			Assistant: answer.Persona,
			Content:   answer.Content(),
			Amount:    amount,
		}); err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if amount != nil {
		publish(ctx, s.events, in.Mobile, sse.EventWallet, map[string]float64{"balance": balance})
	}

	return &ChatResult{
		Answer:        answer.Content(),
		Assistant:     answer.Persona,
		Metrics:       answer.Metrics,
		Context:       answer.Context,
		WalletBalance: &balance,
		Amount:        amount,
		MayaJSON:      answer.Structured,
		SessionID:     in.SessionID,
	}, nil
}

// EndChat summarizes a session and marks it summarized. Ending an already
// summarized session returns the stored summary.
func (s *ChatService) EndChat(ctx context.Context, mobile, sessionID string, history []model.HistoryTurn) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", apperrors.InvalidFields(apperrors.Field("session_id", "Session id is required"))
	}

	session, err := s.chats.FindSession(ctx, sessionID)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if session != nil {
		if session.Mobile != mobile {
			return "", apperrors.Forbidden("Session belongs to another user")
		}
		if session.Status == model.SessionStatusSummarized && session.Summary != "" {
			return session.Summary, nil
		}
		if len(history) == 0 {
			messages, err := s.chats.FindMessages(ctx, sessionID)
			if err != nil {
				return "", apperrors.Database(err)
			}
			history = toHistory(messages)
		}
	}

	summary, err := s.responder.Summarize(ctx, history)
	if err != nil {
		return "", apperrors.External("oracle", err)
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		chats := s.chats.WithTx(tx)
		if _, err := chats.EnsureSession(ctx, sessionID, mobile, firstUserTopic(history)); err != nil {
			return apperrors.Database(err)
		}
		if err := chats.MarkSummarized(ctx, sessionID, summary); err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("sessionId", sessionID).Int("turns", len(history)).Msg("chat session summarized")
	return summary, nil
}

// History returns the user's sessions, newest first, with their messages.
func (s *ChatService) History(ctx context.Context, mobile string) ([]model.SessionWithMessages, error) {
	sessions, err := s.chats.FindSessionsByMobile(ctx, mobile, historySessionLimit)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	result := make([]model.SessionWithMessages, 0, len(sessions))
	for _, session := range sessions {
		messages, err := s.chats.FindMessages(ctx, session.SessionID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if messages == nil {
			messages = []model.ChatMessage{}
		}
		result = append(result, model.SessionWithMessages{ChatSession: session, Messages: messages})
	}
	return result, nil
}

// SubmitFeedback stores the rating for a session. A second submission for
// the same session replaces the first.
func (s *ChatService) SubmitFeedback(ctx context.Context, fb model.Feedback) (*model.Feedback, error) {
	if fb.Rating < 1 || fb.Rating > 5 {
		return nil, apperrors.InvalidFields(apperrors.Field("rating", "Rating must be between 1 and 5"))
	}

	session, err := s.chats.FindSession(ctx, fb.SessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil || session.Mobile != fb.Mobile {
		return nil, apperrors.NotFound("Session")
	}

	fb.Comment = strings.TrimSpace(fb.Comment)
	saved, err := s.feedback.Upsert(ctx, fb)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return saved, nil
}

func (s *ChatService) checkSessionOpen(ctx context.Context, sessionID, mobile string) error {
	session, err := s.chats.FindSession(ctx, sessionID)
	if err != nil {
		return apperrors.Database(err)
	}
	if session == nil {
		return nil
	}
	if session.Mobile != mobile {
		return apperrors.Forbidden("Session belongs to another user")
	}
	if session.Status == model.SessionStatusSummarized {
		return apperrors.SessionClosed()
	}
	return nil
}

func toHistory(messages []model.ChatMessage) []model.HistoryTurn {
	history := make([]model.HistoryTurn, len(messages))
	for i, m := range messages {
		history[i] = model.HistoryTurn{Role: m.Role, Assistant: m.Assistant, Content: m.Content}
	}
	return history
}

func firstUserTopic(history []model.HistoryTurn) string {
	for _, h := range history {
		if h.Role == model.RoleUser {
			return topic(h.Content)
		}
	}
	return ""
}

func topic(message string) string {
	message = strings.TrimSpace(message)
	if len([]rune(message)) <= topicMaxLen {
		return message
	}
	return string([]rune(message)[:topicMaxLen]) + "…"
}
