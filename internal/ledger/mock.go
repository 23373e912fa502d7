package ledger

import "context"

// Mock permite tests sin un nodo real. Cada campo Fn reemplaza un metodo;
// los no seteados devuelven ceros.
type Mock struct {
	GetBalanceFn      func(ctx context.Context, address string) (Balance, error)
	BuildTransferFn   func(ctx context.Context, from, to string, lamports int64, memo string) (TransferArtifact, error)
	SubmitSignedFn    func(ctx context.Context, signedTxBase64 string) (string, error)
	SignatureStatusFn func(ctx context.Context, signature string) (ConfirmationStatus, error)
	RecentActivityFn  func(ctx context.Context, address string, limit int) ([]ActivityItem, error)
}

func (m *Mock) GetBalance(ctx context.Context, address string) (Balance, error) {
	if m.GetBalanceFn == nil {
		return Balance{}, nil
	}
	return m.GetBalanceFn(ctx, address)
}

func (m *Mock) BuildTransfer(ctx context.Context, from, to string, lamports int64, memo string) (TransferArtifact, error) {
	if m.BuildTransferFn == nil {
		return TransferArtifact{}, nil
	}
	return m.BuildTransferFn(ctx, from, to, lamports, memo)
}

func (m *Mock) SubmitSigned(ctx context.Context, signedTxBase64 string) (string, error) {
	if m.SubmitSignedFn == nil {
		return "", nil
	}
	return m.SubmitSignedFn(ctx, signedTxBase64)
}

func (m *Mock) SignatureStatus(ctx context.Context, signature string) (ConfirmationStatus, error) {
	if m.SignatureStatusFn == nil {
		return ConfirmationStatus{}, nil
	}
	return m.SignatureStatusFn(ctx, signature)
}

func (m *Mock) RecentActivity(ctx context.Context, address string, limit int) ([]ActivityItem, error) {
	if m.RecentActivityFn == nil {
		return nil, nil
	}
	return m.RecentActivityFn(ctx, address, limit)
}
