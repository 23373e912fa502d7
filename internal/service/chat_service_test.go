package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/assistant"
	"github.com/Nakshatra-thange/smooth/internal/cache"
	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/ledger"
)

type chatFixture struct {
	svc      *ChatService
	client   *assistant.Mock
	convRepo *mockConversationRepo
	msgRepo  *mockMessageRepo
	txRepo   *mockTransactionRepo
	user     domain.User
}

func newChatFixture(client *assistant.Mock, gateway ledger.Gateway) *chatFixture {
	user := domain.User{ID: "u1", WalletAddress: testAddress(), CreatedAt: time.Now().UTC()}
	convRepo := newMockConversationRepo()
	msgRepo := &mockMessageRepo{}
	txRepo := newMockTransactionRepo()
	wallet := NewWalletService(gateway, cache.NewMemoryBalanceCache(time.Minute), zap.NewNop())
	executor := NewToolExecutor(wallet, gateway, txRepo, zap.NewNop())
	svc := NewChatService(client, newMockUserRepo(user), convRepo, msgRepo, executor, wallet, zap.NewNop())
	return &chatFixture{svc: svc, client: client, convRepo: convRepo, msgRepo: msgRepo, txRepo: txRepo, user: user}
}

func TestProcessPlainReply(t *testing.T) {
	client := &assistant.Mock{Results: []assistant.Result{{Content: "Hey! I can help with your wallet."}}}
	f := newChatFixture(client, &ledger.Mock{})

	result, err := f.svc.Process(context.Background(), f.user.ID, "", "hello there")
	if err != nil {
		t.Fatalf("expected reply, got %v", err)
	}
	if result.Message != "Hey! I can help with your wallet." {
		t.Fatalf("unexpected reply: %q", result.Message)
	}
	if result.ConversationID == "" {
		t.Fatal("expected a new conversation")
	}
	if result.RequiresApproval || result.TransactionID != "" {
		t.Fatal("plain reply should not reference a transaction")
	}

	if len(f.msgRepo.messages) != 2 {
		t.Fatalf("expected user + assistant persisted, got %d messages", len(f.msgRepo.messages))
	}
	if f.msgRepo.messages[0].Role != domain.RoleUser || f.msgRepo.messages[1].Role != domain.RoleAssistant {
		t.Fatal("messages persisted out of order")
	}
	if f.convRepo.touched != 1 {
		t.Fatalf("expected conversation touched once, got %d", f.convRepo.touched)
	}

	conv := f.convRepo.conversations[result.ConversationID]
	if conv.Title != "hello there" {
		t.Fatalf("expected title from first message, got %q", conv.Title)
	}
}

func TestProcessTitleTruncation(t *testing.T) {
	client := &assistant.Mock{Results: []assistant.Result{{Content: "ok"}}}
	f := newChatFixture(client, &ledger.Mock{})

	long := strings.Repeat("x", 200)
	result, err := f.svc.Process(context.Background(), f.user.ID, "", long)
	if err != nil {
		t.Fatalf("expected reply, got %v", err)
	}
	if got := f.convRepo.conversations[result.ConversationID].Title; len(got) != titleLength {
		t.Fatalf("expected %d-char title, got %d", titleLength, len(got))
	}
}

func TestProcessTitleTruncationMultibyte(t *testing.T) {
	client := &assistant.Mock{Results: []assistant.Result{{Content: "ok"}}}
	f := newChatFixture(client, &ledger.Mock{})

	// El corte nunca debe partir una runa a mitad de sus bytes.
	long := strings.Repeat("a", titleLength-1) + strings.Repeat("é", 20)
	result, err := f.svc.Process(context.Background(), f.user.ID, "", long)
	if err != nil {
		t.Fatalf("expected reply, got %v", err)
	}

	title := f.convRepo.conversations[result.ConversationID].Title
	if !utf8.ValidString(title) {
		t.Fatalf("title is not valid UTF-8: %q", title)
	}
	if got := utf8.RuneCountInString(title); got != titleLength {
		t.Fatalf("expected %d runes, got %d", titleLength, got)
	}
	if !strings.HasSuffix(title, "é") {
		t.Fatalf("expected title to end on a whole rune, got %q", title)
	}
}

func TestProcessBalanceToolRound(t *testing.T) {
	client := &assistant.Mock{Results: []assistant.Result{
		{ToolCalls: []assistant.ToolCall{{ID: "call-1", Name: "get_balance", Arguments: "{}"}}},
		{Content: "You have 2.5 SOL."},
	}}
	gateway := &ledger.Mock{
		GetBalanceFn: func(ctx context.Context, address string) (ledger.Balance, error) {
			return ledger.Balance{Lamports: 2_500_000_000}, nil
		},
	}
	f := newChatFixture(client, gateway)

	result, err := f.svc.Process(context.Background(), f.user.ID, "", "what's my balance?")
	if err != nil {
		t.Fatalf("expected reply, got %v", err)
	}
	if result.Message != "You have 2.5 SOL." {
		t.Fatalf("unexpected reply: %q", result.Message)
	}
	if len(client.Requests) != 2 {
		t.Fatalf("expected two assistant rounds, got %d", len(client.Requests))
	}

	// El segundo request lleva el turno del asistente con tool_calls y el
	// resultado del tool enlazado por id.
	second := client.Requests[1].Messages
	toolMsg := second[len(second)-1]
	if toolMsg.Role != "tool" || toolMsg.ToolCallID != "call-1" {
		t.Fatalf("expected tool result keyed to call-1, got %+v", toolMsg)
	}
	if !strings.Contains(toolMsg.Content, "2.5") {
		t.Fatalf("expected balance in tool payload, got %s", toolMsg.Content)
	}

	if len(f.msgRepo.messages) != 2 {
		t.Fatalf("tool rounds must not persist intermediate turns, got %d messages", len(f.msgRepo.messages))
	}
	assistantMsg := f.msgRepo.messages[1]
	if len(assistantMsg.Metadata.ToolCalls) != 1 || assistantMsg.Metadata.ToolCalls[0] != "get_balance" {
		t.Fatalf("expected tool call recorded in metadata, got %+v", assistantMsg.Metadata.ToolCalls)
	}
}

func TestProcessTransferProposal(t *testing.T) {
	recipient := testAddress()
	fee := int64(5_000)
	client := &assistant.Mock{Results: []assistant.Result{
		{ToolCalls: []assistant.ToolCall{{
			ID:        "call-1",
			Name:      "create_transfer",
			Arguments: fmt.Sprintf(`{"recipient":%q,"amount":0.5}`, recipient),
		}}},
		{Content: "Transfer ready, approve it in your wallet."},
	}}
	gateway := &ledger.Mock{
		GetBalanceFn: func(ctx context.Context, address string) (ledger.Balance, error) {
			return ledger.Balance{Lamports: 5_000_000_000}, nil
		},
		BuildTransferFn: func(ctx context.Context, from, to string, lamports int64, memo string) (ledger.TransferArtifact, error) {
			return ledger.TransferArtifact{UnsignedTx: "dW5zaWduZWQ=", EstimatedFee: &fee}, nil
		},
	}
	f := newChatFixture(client, gateway)

	result, err := f.svc.Process(context.Background(), f.user.ID, "", "send 0.5 SOL to my friend")
	if err != nil {
		t.Fatalf("expected reply, got %v", err)
	}
	if !result.RequiresApproval || result.TransactionID == "" {
		t.Fatalf("expected pending approval, got %+v", result)
	}

	tx := f.txRepo.get(result.TransactionID)
	if tx.Status != domain.StatusPending || tx.Amount != 500_000_000 {
		t.Fatalf("unexpected intent: %+v", tx)
	}
	if f.msgRepo.messages[1].Metadata.TransactionID != result.TransactionID {
		t.Fatal("expected transaction id in assistant metadata")
	}
}

func TestProcessRoundCap(t *testing.T) {
	// El mock repite el ultimo guion: el asistente pide tools para siempre.
	client := &assistant.Mock{Results: []assistant.Result{
		{ToolCalls: []assistant.ToolCall{{ID: "c", Name: "get_balance", Arguments: "{}"}}},
	}}
	f := newChatFixture(client, &ledger.Mock{})

	result, err := f.svc.Process(context.Background(), f.user.ID, "", "loop forever")
	if err != nil {
		t.Fatalf("round cap must not be an error, got %v", err)
	}
	if result.Message != capReply {
		t.Fatalf("expected cap reply, got %q", result.Message)
	}
	if len(client.Requests) != maxToolRounds {
		t.Fatalf("expected exactly %d rounds, got %d", maxToolRounds, len(client.Requests))
	}
	if len(f.msgRepo.messages) != 2 {
		t.Fatalf("expected turn persisted despite cap, got %d messages", len(f.msgRepo.messages))
	}
}

func TestProcessAssistantFailureDegrades(t *testing.T) {
	client := &assistant.Mock{Err: errors.New("model unavailable")}
	f := newChatFixture(client, &ledger.Mock{})

	result, err := f.svc.Process(context.Background(), f.user.ID, "", "hello")
	if err != nil {
		t.Fatalf("assistant failure must degrade, not propagate: %v", err)
	}
	if result.Message != fallbackReply {
		t.Fatalf("expected fallback reply, got %q", result.Message)
	}
	if result.RequiresApproval || result.TransactionID != "" {
		t.Fatal("degraded turn must not reference a transaction")
	}

	assistantMsg := f.msgRepo.messages[1]
	if assistantMsg.Metadata.Error == "" {
		t.Fatal("expected error recorded in metadata")
	}
}

func TestProcessInputValidation(t *testing.T) {
	f := newChatFixture(&assistant.Mock{}, &ledger.Mock{})

	for _, text := range []string{"", "   ", strings.Repeat("a", maxMessageLength+1)} {
		if _, err := f.svc.Process(context.Background(), f.user.ID, "", text); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q-ish input, got %v", text[:min(len(text), 5)], err)
		}
	}
	if len(f.msgRepo.messages) != 0 {
		t.Fatal("rejected input must not be persisted")
	}
}

func TestProcessUnknownConversation(t *testing.T) {
	f := newChatFixture(&assistant.Mock{}, &ledger.Mock{})

	_, err := f.svc.Process(context.Background(), f.user.ID, "missing-conv", "hello")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessWindowEndsWithUserMessage(t *testing.T) {
	client := &assistant.Mock{Results: []assistant.Result{{Content: "ok"}}}
	f := newChatFixture(client, &ledger.Mock{})

	if _, err := f.svc.Process(context.Background(), f.user.ID, "", "first question"); err != nil {
		t.Fatalf("expected reply, got %v", err)
	}

	msgs := client.Requests[0].Messages
	last := msgs[len(msgs)-1]
	if last.Role != domain.RoleUser || last.Content != "first question" {
		t.Fatalf("expected window to end with the user turn, got %+v", last)
	}
}
