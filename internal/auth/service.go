package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Predefined service errors.
var (
	ErrOperatorNotFound = errors.New("operator not found")

	// ErrInvalidCredentials covers both unknown operator ids and wrong
	// keys, so a caller cannot probe which operator ids exist.
	ErrInvalidCredentials = errors.New("invalid operator credentials")

	ErrOperatorDisabled = errors.New("operator is disabled")
)

// OperatorRepository defines the interface for operator data operations.
type OperatorRepository interface {
	// FindByID finds an operator by id.
	FindByID(ctx context.Context, id string) (*Operator, error)

	// Create creates a new operator.
	Create(ctx context.Context, op *Operator) error
}

// RefreshTokenRepository defines the interface for refresh token operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token.
	Create(ctx context.Context, token *RefreshToken) error

	// FindByToken finds a refresh token by its value.
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)

	// Revoke marks a refresh token as revoked.
	Revoke(ctx context.Context, token string) error

	// RevokeAllForOperator revokes all refresh tokens for an operator.
	RevokeAllForOperator(ctx context.Context, operatorID string) error
}

// Service provides authentication operations.
type Service struct {
	jwtService   *JWTService
	operatorRepo OperatorRepository
	refreshRepo  RefreshTokenRepository
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService   *JWTService
	OperatorRepo OperatorRepository
	RefreshRepo  RefreshTokenRepository
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		jwtService:   cfg.JWTService,
		operatorRepo: cfg.OperatorRepo,
		refreshRepo:  cfg.RefreshRepo,
	}
}

// HashKey returns the hex SHA-256 digest of an operator key. Keys are
// machine-generated high-entropy strings, not human passwords, so a plain
// digest comparison is sufficient.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Login authenticates an operator by id and key and returns API tokens.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validation error: %s", errs[0].Message)
	}

	op, err := s.operatorRepo.FindByID(ctx, req.OperatorID)
	if err != nil {
		if errors.Is(err, ErrOperatorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	digest := HashKey(req.Key)
	if subtle.ConstantTimeCompare([]byte(op.KeyDigest), []byte(digest)) != 1 {
		return nil, ErrInvalidCredentials
	}

	if op.Disabled {
		return nil, ErrOperatorDisabled
	}

	return s.generateTokens(ctx, op)
}

// RefreshAccessToken refreshes an access token using a refresh token.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshTokenStr string) (*TokenResponse, error) {
	refreshToken, err := s.refreshRepo.FindByToken(ctx, refreshTokenStr)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if refreshToken.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	op, err := s.operatorRepo.FindByID(ctx, refreshToken.OperatorID)
	if err != nil {
		return nil, ErrOperatorNotFound
	}

	if op.Disabled {
		return nil, ErrOperatorDisabled
	}

	// Revoke the old refresh token (rotation)
	if err := s.refreshRepo.Revoke(ctx, refreshTokenStr); err != nil {
		return nil, fmt.Errorf("revoking old refresh token: %w", err)
	}

	return s.generateTokens(ctx, op)
}

// ValidateAccessToken validates an access token and returns the operator ID.
func (s *Service) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.OperatorID, nil
}

// GetOperator retrieves an operator by ID.
func (s *Service) GetOperator(ctx context.Context, operatorID string) (*Operator, error) {
	return s.operatorRepo.FindByID(ctx, operatorID)
}

// CreateOperator provisions a new operator with the given key. Used by
// the seed tooling; there is no HTTP endpoint for this.
func (s *Service) CreateOperator(ctx context.Context, name, key string) (*Operator, error) {
	if name == "" {
		return nil, errors.New("operator name is required")
	}
	if len(key) < 16 {
		return nil, errors.New("operator key must be at least 16 characters")
	}

	now := time.Now()
	op := &Operator{
		ID:        generateOperatorID(),
		Name:      name,
		KeyDigest: HashKey(key),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.operatorRepo.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("creating operator: %w", err)
	}

	return op, nil
}

// RevokeRefreshToken revokes a specific refresh token.
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshTokenStr string) error {
	return s.refreshRepo.Revoke(ctx, refreshTokenStr)
}

// RevokeAllTokens revokes all refresh tokens for an operator (logout everywhere).
func (s *Service) RevokeAllTokens(ctx context.Context, operatorID string) error {
	return s.refreshRepo.RevokeAllForOperator(ctx, operatorID)
}

// generateTokens generates both access and refresh tokens for an operator.
func (s *Service) generateTokens(ctx context.Context, op *Operator) (*TokenResponse, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(op)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	refreshTokenStr, err := GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	refreshToken := &RefreshToken{
		ID:         uuid.New().String(),
		Token:      refreshTokenStr,
		OperatorID: op.ID,
		ExpiresAt:  time.Now().Add(RefreshTokenExpiry),
		CreatedAt:  time.Now(),
	}

	if err := s.refreshRepo.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
		RefreshToken: refreshTokenStr,
		Operator:     op,
	}, nil
}

// generateOperatorID generates a unique operator ID with prefix.
func generateOperatorID() string {
	return "opr_" + uuid.New().String()[:22]
}
