package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T, clock *fakeClock, opts ...Option) *TokenService {
	t.Helper()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	svc, err := NewTokenService(testSecret, opts...)
	require.NoError(t, err)
	return svc
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	svc, err := NewTokenService("")
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	for _, name := range []string{"alice", "Bob Smith", "名前", "a"} {
		t.Run(name, func(t *testing.T) {
			token, err := svc.Issue(name)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			identity, err := svc.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, name, identity)
		})
	}
}

func TestIssue_EmptyIdentity(t *testing.T) {
	svc := newTestService(t, &fakeClock{now: time.Now()})

	token, err := svc.Issue("")
	assert.Empty(t, token)
	assert.ErrorIs(t, err, ErrEmptyIdentity)
}

func TestVerify_ExpiresAfterOneHour(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	token, err := svc.Issue("alice")
	require.NoError(t, err)

	identity, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity)

	clock.Advance(59 * time.Minute)
	_, err = svc.Verify(token)
	assert.NoError(t, err)

	clock.Advance(2 * time.Minute)
	identity, err = svc.Verify(token)
	assert.Empty(t, identity)
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.NotErrorIs(t, err, ErrMissingCredential)
}

func TestVerify_CustomExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock, WithExpiry(5*time.Minute))
	assert.Equal(t, 5*time.Minute, svc.Expiry())

	token, err := svc.Issue("alice")
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerify_DifferentSecret(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	other, err := NewTokenService("another-secret", WithClock(clock.Now))
	require.NoError(t, err)

	token, err := other.Issue("alice")
	require.NoError(t, err)

	svc := newTestService(t, clock)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerify_MissingToken(t *testing.T) {
	svc := newTestService(t, &fakeClock{now: time.Now()})

	for _, token := range []string{"", "   ", "Bearer "} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrMissingCredential, "token %q", token)
		assert.NotErrorIs(t, err, ErrInvalidCredential)
	}
}

func TestVerify_BearerPrefix(t *testing.T) {
	svc := newTestService(t, &fakeClock{now: time.Now()})

	token, err := svc.Issue("alice")
	require.NoError(t, err)

	identity, err := svc.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity)
}

func TestVerify_RejectsTamperedAndForeignTokens(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	svc := newTestService(t, clock)

	valid, err := svc.Issue("alice")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserName: "mallory",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserName: "alice"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	noName, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":       "not-a-jwt",
		"truncated":     valid[:len(valid)-4],
		"alg none":      noneToken,
		"no expiry":     noExp,
		"no identity":   noName,
		"tampered body": valid + "x",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			identity, err := svc.Verify(token)
			assert.Empty(t, identity)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestVerify_Issuer(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer := newTestService(t, clock, WithIssuer("interview-api"))
	stranger := newTestService(t, clock, WithIssuer("someone-else"))

	token, err := stranger.Issue("alice")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	token, err = issuer.Issue("alice")
	require.NoError(t, err)
	identity, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithIdentity(context.Background(), "alice")
	identity, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "alice", identity)
}
