package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/user/dto"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/testutil"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func newService(store *testutil.Store, ttl time.Duration) AuthService {
	return NewAuthService(store.Users(), testSecret, ttl, zap.NewNop())
}

func TestRegisterThenLogin(t *testing.T) {
	store := testutil.NewStore()
	svc := newService(store, time.Hour)
	ctx := context.Background()

	reg, err := svc.Register(ctx, dto.RegisterInput{Name: " Amina ", Email: "Amina@Example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", reg.TokenType)
	assert.Equal(t, int64(3600), reg.ExpiresIn)
	assert.Equal(t, "Amina", reg.User.Name)
	assert.Equal(t, entity.RoleCustomer, reg.User.Role.Name)
	assert.Empty(t, reg.User.PasswordHash)

	login, err := svc.Login(ctx, dto.LoginInput{Email: "amina@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	userID, err := svc.ParseToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)

	me, err := svc.Me(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", me.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := testutil.NewStore()
	svc := newService(store, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, dto.RegisterInput{Name: "B", Email: "A@example.com", Password: "password2"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperror.MapErrorToStatus(err))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	store := testutil.NewStore()
	svc := newService(store, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	for _, in := range []dto.LoginInput{
		{Email: "a@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "password1"},
	} {
		_, err := svc.Login(ctx, in)
		assert.Equal(t, http.StatusUnauthorized, apperror.MapErrorToStatus(err))
	}
}

func TestParseToken_Rejects(t *testing.T) {
	store := testutil.NewStore()
	user := store.AddUser("A", "a@example.com", entity.RoleCustomer)

	expired := newService(store, time.Nanosecond).(*authService)
	token, err := expired.generateToken(user)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	svc := newService(store, time.Hour)
	_, err = svc.ParseToken(token)
	assert.Equal(t, http.StatusUnauthorized, apperror.MapErrorToStatus(err))

	other := NewAuthService(store.Users(), "another-secret", time.Hour, zap.NewNop()).(*authService)
	forged, err := other.generateToken(user)
	require.NoError(t, err)
	_, err = svc.ParseToken(forged)
	assert.Equal(t, http.StatusUnauthorized, apperror.MapErrorToStatus(err))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: user.ID.String()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ParseToken(unsigned)
	assert.Equal(t, http.StatusUnauthorized, apperror.MapErrorToStatus(err))

	_, err = svc.ParseToken("garbage")
	assert.Equal(t, http.StatusUnauthorized, apperror.MapErrorToStatus(err))
}
