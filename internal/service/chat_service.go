package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/assistant"
	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/repository"
)

const (
	maxToolRounds    = 5
	historyWindow    = 10
	maxMessageLength = 5000
	titleLength      = 50

	fallbackReply = "I encountered an error processing your request. Please try again."
	capReply      = "I wasn't able to complete that request within the allowed steps. Please try again."
)

// ChatResult es el contrato de salida de un turno de conversacion.
type ChatResult struct {
	Message          string `json:"message"`
	ConversationID   string `json:"conversation_id"`
	TransactionID    string `json:"transaction_id,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`
}

// ChatService orquesta un turno completo: resuelve la conversacion, corre el
// loop de tools acotado y persiste el intercambio. Es la frontera externa de
// errores conversacionales: nunca deja escapar una falla sin antes dejar la
// conversacion usable.
type ChatService struct {
	client   assistant.Client
	userRepo repository.UserRepository
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	executor *ToolExecutor
	wallet   *WalletService
	logger   *zap.Logger
}

func NewChatService(
	client assistant.Client,
	userRepo repository.UserRepository,
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	executor *ToolExecutor,
	wallet *WalletService,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		client:   client,
		userRepo: userRepo,
		convRepo: convRepo,
		msgRepo:  msgRepo,
		executor: executor,
		wallet:   wallet,
		logger:   logger,
	}
}

// Process convierte un mensaje del usuario en una respuesta del asistente.
func (s *ChatService) Process(ctx context.Context, userID, conversationID, text string) (ChatResult, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxMessageLength {
		return ChatResult{}, fmt.Errorf("%w: message must be 1-%d characters", domain.ErrInvalidInput, maxMessageLength)
	}

	conv, err := s.resolveConversation(ctx, userID, conversationID, text)
	if err != nil {
		return ChatResult{}, err
	}

	userMsg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           domain.RoleUser,
		Content:        text,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.msgRepo.Create(ctx, userMsg); err != nil {
		return ChatResult{}, fmt.Errorf("persist user message: %w", err)
	}

	reply, meta, txID, requiresApproval, loopErr := s.runToolLoop(ctx, userID, conv.ID)
	if loopErr != nil {
		// Degradar, no propagar: la conversacion queda usable y el error
		// queda registrado en metadata.
		s.logger.Error("chat turn failed", zap.String("conversation_id", conv.ID), zap.Error(loopErr))
		reply = fallbackReply
		meta.Error = loopErr.Error()
		txID = ""
		requiresApproval = false
	}

	meta.TransactionID = txID
	assistantMsg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           domain.RoleAssistant,
		Content:        reply,
		Metadata:       meta,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.msgRepo.Create(ctx, assistantMsg); err != nil {
		return ChatResult{}, fmt.Errorf("persist assistant message: %w", err)
	}
	if err := s.convRepo.Touch(ctx, conv.ID); err != nil {
		s.logger.Warn("touch conversation failed", zap.Error(err))
	}

	return ChatResult{
		Message:          reply,
		ConversationID:   conv.ID,
		TransactionID:    txID,
		RequiresApproval: requiresApproval,
	}, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, userID, conversationID, text string) (domain.Conversation, error) {
	if conversationID != "" {
		conv, err := s.convRepo.GetByID(ctx, conversationID, userID)
		if err != nil {
			return domain.Conversation{}, fmt.Errorf("resolve conversation: %w", err)
		}
		return conv, nil
	}

	// El corte respeta limites de runa: un titulo con UTF-8 partido no es
	// persistible.
	title := text
	if runes := []rune(title); len(runes) > titleLength {
		title = string(runes[:titleLength])
	}
	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// runToolLoop ejecuta el ciclo request/response con el asistente. Las tools
// se ejecutan secuencialmente en el orden pedido: una propuesta de
// transferencia puede ser referida por la tool siguiente del mismo round.
func (s *ChatService) runToolLoop(ctx context.Context, userID, conversationID string) (string, domain.MessageMetadata, string, bool, error) {
	var meta domain.MessageMetadata

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", meta, "", false, fmt.Errorf("resolve user: %w", err)
	}
	if user.WalletAddress == "" {
		return "", meta, "", false, fmt.Errorf("%w: wallet not connected", domain.ErrInvalidInput)
	}

	window, err := s.msgRepo.ListRecent(ctx, conversationID, historyWindow)
	if err != nil {
		return "", meta, "", false, fmt.Errorf("load history window: %w", err)
	}

	// Grounding best-effort: si el balance falla, el turno sigue sin el.
	var balance *domain.WalletBalance
	if snapshot, balErr := s.wallet.GetBalance(ctx, user.WalletAddress); balErr == nil {
		balance = &snapshot
	} else {
		s.logger.Warn("balance grounding unavailable", zap.Error(balErr))
	}

	messages := make([]assistant.Message, 0, len(window))
	for _, msg := range window {
		messages = append(messages, assistant.Message{Role: msg.Role, Content: msg.Content})
	}

	req := assistant.Request{
		System:   buildSystemPrompt(user.WalletAddress, balance),
		Messages: messages,
		Tools:    assistant.WalletTools,
	}

	var txID string
	requiresApproval := false

	for round := 0; round < maxToolRounds; round++ {
		result, err := s.client.Complete(ctx, req)
		if err != nil {
			return "", meta, "", false, fmt.Errorf("%w: assistant: %v", domain.ErrUpstream, err)
		}

		if len(result.ToolCalls) == 0 {
			return result.Content, meta, txID, requiresApproval, nil
		}

		req.Messages = append(req.Messages, assistant.Message{
			Role:      domain.RoleAssistant,
			Content:   result.Content,
			ToolCalls: result.ToolCalls,
		})

		for _, call := range result.ToolCalls {
			meta.ToolCalls = append(meta.ToolCalls, call.Name)

			outcome := s.executor.Execute(ctx, userID, user.WalletAddress, call)
			if outcome.Err != "" {
				meta.Error = outcome.Err
			}
			if outcome.TransactionID != "" {
				txID = outcome.TransactionID
				requiresApproval = true
			}

			payload, err := json.Marshal(outcome.Payload)
			if err != nil {
				payload = []byte(`{"error":"tool result serialization failed"}`)
			}
			req.Messages = append(req.Messages, assistant.Message{
				Role:       "tool",
				Content:    string(payload),
				ToolCallID: call.ID,
			})
		}
	}

	// Tope de rounds alcanzado: respuesta generica, sin mas tools.
	s.logger.Warn("tool loop round cap reached", zap.String("conversation_id", conversationID))
	return capReply, meta, txID, requiresApproval, nil
}
