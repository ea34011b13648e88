package services

import (
	"context"
	"testing"

	"github.com/esportium/esports-arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegisterInput() RegisterInput {
	return RegisterInput{
		FirstName: "Sam",
		LastName:  "Lee",
		Nickname:  "slee",
		Email:     "sam@example.com",
		Password:  "correct horse",
	}
}

func TestRegister(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	user, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	assert.Equal(t, models.RolePlayer, user.Role)
	assert.Empty(t, user.PasswordHash, "hash must never leave the service")
	assert.NotZero(t, user.ID)
}

func TestRegisterShortPassword(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	input := validRegisterInput()
	input.Password = "short"
	_, err := svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	_, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	dup := validRegisterInput()
	dup.Nickname = "other"
	_, err = svc.Register(context.Background(), dup)
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	input := validRegisterInput()
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Login(context.Background(), LoginInput{Email: input.Email, Password: input.Password})
		require.NoError(t, err)
		assert.Equal(t, input.Email, user.Email)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Email: input.Email, Password: "wrong password"})
		assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: input.Password})
		assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
	})
}
