package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("hs256-test-key-0123456789abcdef!")

func newHSManager(t *testing.T, mutate func(*Config)) *Manager {
	t.Helper()

	cfg := Config{
		AccessTTL:     15 * time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    testKey,
		Issuer:        "authcore-test",
	}
	if mutate != nil {
		mutate(&cfg)
	}

	m, err := NewManager(cfg)
	require.NoError(t, err)
	return m
}

func TestNewManagerValidation(t *testing.T) {
	_, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero ttl", Config{SigningMethod: MethodHS256, PrivateKey: testKey}},
		{"negative leeway", Config{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: testKey, Leeway: -time.Second}},
		{"excessive leeway", Config{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: testKey, Leeway: 3 * time.Minute}},
		{"hs256 without key", Config{AccessTTL: time.Minute, SigningMethod: MethodHS256}},
		{"ed25519 without public key", Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: edPriv}},
		{"ed25519 garbage public key", Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: []byte("junk")}},
		{"unsupported method", Config{AccessTTL: time.Minute, SigningMethod: "rs512", PrivateKey: testKey}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewManager(tc.cfg)
			require.Error(t, err)
		})
	}
}

func TestCreateParseRoundTripHS256(t *testing.T) {
	m := newHSManager(t, nil)

	token, err := m.CreateAccess("user-1", "admin")
	require.NoError(t, err)

	claims, err := m.ParseAccess(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "authcore-test", claims.Issuer)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

// Timestamps have second granularity, so uniqueness must come from the
// jti claim: tokens minted back to back for one subject may share every
// other claim.
func TestCreateAccessUniquePerCall(t *testing.T) {
	m := newHSManager(t, nil)

	first, err := m.CreateAccess("user-1", "member")
	require.NoError(t, err)
	second, err := m.CreateAccess("user-1", "member")
	require.NoError(t, err)

	require.NotEqual(t, first, second)

	firstClaims, err := m.ParseAccess(first)
	require.NoError(t, err)
	secondClaims, err := m.ParseAccess(second)
	require.NoError(t, err)

	require.NotEmpty(t, firstClaims.ID)
	require.NotEmpty(t, secondClaims.ID)
	require.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestCreateParseRoundTripEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	m, err := NewManager(Config{
		AccessTTL:     15 * time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "authcore-test",
		Audience:      "api",
	})
	require.NoError(t, err)

	token, err := m.CreateAccess("user-2", "member")
	require.NoError(t, err)

	claims, err := m.ParseAccess(token)
	require.NoError(t, err)
	require.Equal(t, "user-2", claims.Subject)
	require.Contains(t, claims.Audience, "api")
}

func TestParseRejectsWrongKey(t *testing.T) {
	m := newHSManager(t, nil)
	other := newHSManager(t, func(cfg *Config) {
		cfg.PrivateKey = []byte("a-completely-different-hmac-key!")
	})

	token, err := other.CreateAccess("user-1", "member")
	require.NoError(t, err)

	_, err = m.ParseAccess(token)
	require.ErrorIs(t, err, jwtlib.ErrTokenSignatureInvalid)
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	edManager, err := NewManager(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	require.NoError(t, err)

	hsManager := newHSManager(t, func(cfg *Config) { cfg.Issuer = "" })

	token, err := hsManager.CreateAccess("user-1", "member")
	require.NoError(t, err)

	// An HS256 token must not pass a verifier configured for EdDSA even
	// if an attacker could guess key material.
	_, err = edManager.ParseAccess(token)
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	claims := jwtlib.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "authcore-test",
		IssuedAt:  jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Minute)),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)

	m := newHSManager(t, nil)
	_, err = m.ParseAccess(token)
	require.ErrorIs(t, err, jwtlib.ErrTokenExpired)
}

func TestParseLeewayToleratesClockSkew(t *testing.T) {
	claims := jwtlib.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "authcore-test",
		IssuedAt:  jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-10 * time.Second)),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)

	strict := newHSManager(t, nil)
	_, err = strict.ParseAccess(token)
	require.ErrorIs(t, err, jwtlib.ErrTokenExpired)

	lenient := newHSManager(t, func(cfg *Config) { cfg.Leeway = 30 * time.Second })
	_, err = lenient.ParseAccess(token)
	require.NoError(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	m := newHSManager(t, nil)
	other := newHSManager(t, func(cfg *Config) { cfg.Issuer = "somebody-else" })

	token, err := other.CreateAccess("user-1", "member")
	require.NoError(t, err)

	_, err = m.ParseAccess(token)
	require.ErrorIs(t, err, jwtlib.ErrTokenInvalidIssuer)
}

func TestParseRejectsFarFutureIssuedAt(t *testing.T) {
	claims := jwtlib.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "authcore-test",
		IssuedAt:  jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(2 * time.Hour)),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)

	m := newHSManager(t, nil)
	_, err = m.ParseAccess(token)
	require.Error(t, err)
}

func TestDecodeUnverified(t *testing.T) {
	m := newHSManager(t, nil)
	token, err := m.CreateAccess("user-1", "member")
	require.NoError(t, err)

	claims, err := DecodeUnverified(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)

	// Decoding skips signature checks entirely, so a token signed with
	// an unknown key still decodes.
	foreign, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   "user-2",
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("unknown-key"))
	require.NoError(t, err)

	claims, err = DecodeUnverified(foreign)
	require.NoError(t, err)
	require.Equal(t, "user-2", claims.Subject)

	_, err = DecodeUnverified("garbage")
	require.ErrorIs(t, err, jwtlib.ErrTokenMalformed)

	// A token with no exp claim cannot anchor a blacklist TTL.
	noExp, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject: "user-3",
	}).SignedString(testKey)
	require.NoError(t, err)
	_, err = DecodeUnverified(noExp)
	require.ErrorIs(t, err, jwtlib.ErrTokenInvalidClaims)
}
