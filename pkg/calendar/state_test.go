package calendar

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signingKey = "state-test-key"

func TestState_RoundTrip(t *testing.T) {
	encoded, err := EncodeState(signingKey, State{
		Tenant:     "customer_acme",
		Email:      "agent@example.com",
		ReturnPath: "/settings",
	})
	require.NoError(t, err)

	got, err := DecodeState(signingKey, encoded)
	require.NoError(t, err)
	assert.Equal(t, "customer_acme", got.Tenant)
	assert.Equal(t, "agent@example.com", got.Email)
	assert.Equal(t, "/settings", got.ReturnPath)
	assert.NotZero(t, got.IssuedAt)
}

func TestState_WrongKeyRejected(t *testing.T) {
	encoded, err := EncodeState(signingKey, State{Tenant: "t", Email: "a@b.c"})
	require.NoError(t, err)

	_, err = DecodeState("another-key", encoded)
	assert.EqualError(t, err, "state signature mismatch")
}

func TestState_TamperedPayloadRejected(t *testing.T) {
	encoded, err := EncodeState(signingKey, State{Tenant: "customer_acme", Email: "a@b.c"})
	require.NoError(t, err)

	parts := strings.SplitN(encoded, ".", 2)
	require.Len(t, parts, 2)

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), "customer_acme", "customer_rival", 1)
	tampered := base64.RawURLEncoding.EncodeToString([]byte(forged)) + "." + parts[1]

	_, err = DecodeState(signingKey, tampered)
	assert.EqualError(t, err, "state signature mismatch")
}

func TestState_ExpiredRejected(t *testing.T) {
	encoded, err := EncodeState(signingKey, State{
		Tenant:   "t",
		Email:    "a@b.c",
		IssuedAt: time.Now().Add(-16 * time.Minute).Unix(),
	})
	require.NoError(t, err)

	_, err = DecodeState(signingKey, encoded)
	assert.EqualError(t, err, "state expired")
}

func TestState_MalformedInput(t *testing.T) {
	for _, in := range []string{"", "no-dot", ".", "a.", ".b", "!!!.!!!", "abc.!!!"} {
		_, err := DecodeState(signingKey, in)
		assert.EqualError(t, err, "malformed state", "input %q", in)
	}
}

func TestState_EmptyKeyRefused(t *testing.T) {
	_, err := EncodeState("", State{})
	assert.Error(t, err)

	_, err = DecodeState("", "a.b")
	assert.Error(t, err)
}
