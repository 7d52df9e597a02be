package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserLookup) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserLookup) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func TestTokenService(t *testing.T) {
	const (
		secret = "unit-test-signing-key"
		issuer = "discipline-test"
		userID = "6f1c9a4e-user"
	)

	liveUser := func() *MockUserLookup {
		repo := new(MockUserLookup)
		repo.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID}, nil)
		return repo
	}

	t.Run("Round trips the subject through a signed token", func(t *testing.T) {
		repo := liveUser()
		svc := NewTokenService(secret, issuer, 1*time.Hour, repo)

		token, err := svc.GenerateToken(userID)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		subject, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, subject)

		repo.AssertExpectations(t)
	})

	t.Run("A deleted user's token stops working", func(t *testing.T) {
		repo := new(MockUserLookup)
		repo.On("GetByID", mock.Anything, userID).Return(nil, domain.ErrUserNotFound)

		svc := NewTokenService(secret, issuer, 1*time.Hour, repo)
		token, err := svc.GenerateToken(userID)
		require.NoError(t, err)

		subject, err := svc.ValidateToken(token)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.Empty(t, subject)
	})

	t.Run("Rejects an expired token", func(t *testing.T) {
		svc := NewTokenService(secret, issuer, -1*time.Second, new(MockUserLookup))

		token, err := svc.GenerateToken(userID)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("Rejects a token signed with a different key", func(t *testing.T) {
		forger := NewTokenService("attacker-key", issuer, 1*time.Hour, new(MockUserLookup))
		forged, err := forger.GenerateToken(userID)
		require.NoError(t, err)

		svc := NewTokenService(secret, issuer, 1*time.Hour, new(MockUserLookup))
		_, err = svc.ValidateToken(forged)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("Rejects a token from another issuer", func(t *testing.T) {
		other := NewTokenService(secret, "some-other-service", 1*time.Hour, new(MockUserLookup))
		token, err := other.GenerateToken(userID)
		require.NoError(t, err)

		svc := NewTokenService(secret, issuer, 1*time.Hour, new(MockUserLookup))
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("Rejects the alg none downgrade", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		svc := NewTokenService(secret, issuer, 1*time.Hour, new(MockUserLookup))
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("Rejects a token without a subject", func(t *testing.T) {
		anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		token, err := anonymous.SignedString([]byte(secret))
		require.NoError(t, err)

		svc := NewTokenService(secret, issuer, 1*time.Hour, new(MockUserLookup))
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("Rejects garbage input", func(t *testing.T) {
		svc := NewTokenService(secret, issuer, 1*time.Hour, new(MockUserLookup))

		subject, err := svc.ValidateToken("definitely.not.a.jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
		assert.Empty(t, subject)
	})
}
