package auth

import (
	"context"
	"sync"
	"time"
)

// InMemoryOperatorRepository is an in-memory implementation of OperatorRepository.
// This is intended for tests and single-node deployments. Production should use
// the database-backed implementation.
type InMemoryOperatorRepository struct {
	mu        sync.RWMutex
	operators map[string]*Operator
}

// NewInMemoryOperatorRepository creates a new in-memory operator repository.
func NewInMemoryOperatorRepository() *InMemoryOperatorRepository {
	return &InMemoryOperatorRepository{
		operators: make(map[string]*Operator),
	}
}

// FindByID finds an operator by id.
func (r *InMemoryOperatorRepository) FindByID(_ context.Context, id string) (*Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.operators[id]
	if !ok {
		return nil, ErrOperatorNotFound
	}

	// Return a copy
	opCopy := *op
	return &opCopy, nil
}

// Create creates a new operator.
func (r *InMemoryOperatorRepository) Create(_ context.Context, op *Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	opCopy := *op
	r.operators[op.ID] = &opCopy
	return nil
}

// InMemoryRefreshTokenRepository is an in-memory implementation of RefreshTokenRepository.
type InMemoryRefreshTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]*RefreshToken
}

// NewInMemoryRefreshTokenRepository creates a new in-memory refresh token repository.
func NewInMemoryRefreshTokenRepository() *InMemoryRefreshTokenRepository {
	return &InMemoryRefreshTokenRepository{
		tokens: make(map[string]*RefreshToken),
	}
}

// Create stores a new refresh token.
func (r *InMemoryRefreshTokenRepository) Create(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokenCopy := *token
	r.tokens[token.Token] = &tokenCopy
	return nil
}

// FindByToken finds a refresh token by its value.
func (r *InMemoryRefreshTokenRepository) FindByToken(_ context.Context, token string) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, ErrInvalidRefreshToken
	}

	// Return a copy
	rtCopy := *rt
	return &rtCopy, nil
}

// Revoke marks a refresh token as revoked.
func (r *InMemoryRefreshTokenRepository) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return ErrInvalidRefreshToken
	}

	now := time.Now()
	rt.RevokedAt = &now
	return nil
}

// RevokeAllForOperator revokes all refresh tokens for an operator.
func (r *InMemoryRefreshTokenRepository) RevokeAllForOperator(_ context.Context, operatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, rt := range r.tokens {
		if rt.OperatorID == operatorID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
		}
	}
	return nil
}

var (
	_ OperatorRepository     = (*InMemoryOperatorRepository)(nil)
	_ RefreshTokenRepository = (*InMemoryRefreshTokenRepository)(nil)
)
