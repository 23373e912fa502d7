package service

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/ledger"
	"github.com/Nakshatra-thange/smooth/internal/repository"
)

var ErrInvalidSignature = errors.New("invalid wallet signature")

// AuthService autentica por firma de wallet: el usuario firma un mensaje con
// su clave ed25519 y la verificacion exitosa hace las veces de login.
type AuthService struct {
	userRepo repository.UserRepository
	jwtSvc   *JWTService
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtSvc *JWTService, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		logger:   logger,
	}
}

type AuthResult struct {
	User   domain.User `json:"user"`
	Tokens TokenPair   `json:"tokens"`
}

// VerifyWallet valida la firma, hace upsert del usuario y emite el par JWT.
func (s *AuthService) VerifyWallet(ctx context.Context, walletAddress, message, signature string) (AuthResult, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" || message == "" || signature == "" {
		return AuthResult{}, fmt.Errorf("%w: wallet, message and signature required", domain.ErrInvalidInput)
	}

	if !verifyWalletSignature(walletAddress, message, signature) {
		return AuthResult{}, ErrInvalidSignature
	}

	user, err := s.userRepo.UpsertByWallet(ctx, walletAddress)
	if err != nil {
		return AuthResult{}, fmt.Errorf("upsert wallet user: %w", err)
	}

	tokens, err := s.jwtSvc.GeneratePair(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}

	s.logger.Info("wallet authenticated", zap.String("user_id", user.ID))
	return AuthResult{User: user, Tokens: tokens}, nil
}

// verifyWalletSignature: la direccion es la clave publica ed25519 en base58 y
// la firma viene detached, tambien en base58.
func verifyWalletSignature(walletAddress, message, signature string) bool {
	key, err := ledger.DecodeAddress(walletAddress)
	if err != nil {
		return false
	}
	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(key[:], []byte(message), sig)
}
