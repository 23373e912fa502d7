package service

import (
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/repository"
)

// testAddress genera una direccion valida (clave publica ed25519 en base58).
func testAddress() string {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return base58.Encode(pub)
}

type mockUserRepo struct {
	users map[string]domain.User
}

func newMockUserRepo(users ...domain.User) *mockUserRepo {
	repo := &mockUserRepo{users: make(map[string]domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *mockUserRepo) UpsertByWallet(_ context.Context, walletAddress string) (domain.User, error) {
	for _, u := range r.users {
		if u.WalletAddress == walletAddress {
			return u, nil
		}
	}
	user := domain.User{ID: "user-" + walletAddress[:6], WalletAddress: walletAddress, CreatedAt: time.Now().UTC()}
	r.users[user.ID] = user
	return user, nil
}

func (r *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (r *mockUserRepo) UpdatePreferences(_ context.Context, id string, patch map[string]string) (domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	if user.Preferences == nil {
		user.Preferences = make(map[string]string)
	}
	for k, v := range patch {
		user.Preferences[k] = v
	}
	r.users[id] = user
	return user, nil
}

type mockConversationRepo struct {
	conversations map[string]domain.Conversation
	touched       int
}

func newMockConversationRepo() *mockConversationRepo {
	return &mockConversationRepo{conversations: make(map[string]domain.Conversation)}
}

func (r *mockConversationRepo) Create(_ context.Context, conv domain.Conversation) error {
	r.conversations[conv.ID] = conv
	return nil
}

func (r *mockConversationRepo) GetByID(_ context.Context, id, userID string) (domain.Conversation, error) {
	conv, ok := r.conversations[id]
	if !ok || conv.UserID != userID || !conv.IsActive {
		return domain.Conversation{}, domain.ErrNotFound
	}
	return conv, nil
}

func (r *mockConversationRepo) ListByUser(_ context.Context, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, conv := range r.conversations {
		if conv.UserID == userID && conv.IsActive {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (r *mockConversationRepo) Touch(_ context.Context, id string) error {
	r.touched++
	return nil
}

func (r *mockConversationRepo) Deactivate(_ context.Context, id, userID string) error {
	conv, ok := r.conversations[id]
	if !ok || conv.UserID != userID {
		return domain.ErrNotFound
	}
	conv.IsActive = false
	r.conversations[id] = conv
	return nil
}

type mockMessageRepo struct {
	messages []domain.Message
	failOn   string
}

func (r *mockMessageRepo) Create(_ context.Context, msg domain.Message) error {
	if r.failOn != "" && msg.Role == r.failOn {
		return domain.ErrUpstream
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *mockMessageRepo) ListRecent(_ context.Context, conversationID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *mockMessageRepo) ListByConversation(_ context.Context, conversationID string) ([]domain.Message, error) {
	return r.ListRecent(context.Background(), conversationID, len(r.messages))
}

// mockTransactionRepo replica la semantica compare-and-set del repositorio
// real, incluido el parche condicional de columnas.
type mockTransactionRepo struct {
	mu  sync.Mutex
	txs map[string]domain.Transaction
}

func newMockTransactionRepo(txs ...domain.Transaction) *mockTransactionRepo {
	repo := &mockTransactionRepo{txs: make(map[string]domain.Transaction)}
	for _, tx := range txs {
		repo.txs[tx.ID] = tx
	}
	return repo
}

func (r *mockTransactionRepo) Create(_ context.Context, tx domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[tx.ID] = tx
	return nil
}

func (r *mockTransactionRepo) GetByID(_ context.Context, id, userID string) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[id]
	if !ok || tx.UserID != userID {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return tx, nil
}

func (r *mockTransactionRepo) ListByUser(_ context.Context, userID string, status domain.Status, limit, offset int) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.txs {
		if tx.UserID != userID {
			continue
		}
		if status != "" && tx.Status != status {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *mockTransactionRepo) ListSignedByAddress(_ context.Context, address string, limit int) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.txs {
		if tx.Signature == "" {
			continue
		}
		if tx.FromAddress != address && tx.ToAddress != address {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *mockTransactionRepo) UpdateStatusIf(_ context.Context, id string, expected, next domain.Status, patch repository.StatusPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if tx.Status != expected || !expected.CanTransitionTo(next) {
		return domain.ErrConflict
	}
	tx.Status = next
	if patch.Signature != nil {
		tx.Signature = *patch.Signature
	}
	if patch.ConfirmedAt != nil {
		tx.ConfirmedAt = patch.ConfirmedAt
	}
	if patch.BlockTime != nil {
		tx.BlockTime = patch.BlockTime
	}
	if patch.Slot != nil {
		tx.Slot = patch.Slot
	}
	if patch.ErrorMessage != nil {
		tx.ErrorMessage = *patch.ErrorMessage
	}
	if patch.ClearUnsigned {
		tx.UnsignedTx = ""
	}
	r.txs[id] = tx
	return nil
}

func (r *mockTransactionRepo) get(id string) domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txs[id]
}
