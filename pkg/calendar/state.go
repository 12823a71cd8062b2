package calendar

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// State is the payload threaded through the OAuth redirect. It is carried
// entirely in the redirect parameter as a signed token, so any server
// instance can complete a flow another instance started — no in-memory
// pending-request table.
type State struct {
	Tenant     string `json:"tenant"`
	Email      string `json:"email"`
	ReturnPath string `json:"return_path"`
	IssuedAt   int64  `json:"issued_at"`
}

// stateTTL bounds how long a started authorization flow stays valid.
const stateTTL = 15 * time.Minute

// EncodeState signs and encodes a state payload for the redirect parameter.
func EncodeState(key string, s State) (string, error) {
	if key == "" {
		return "", fmt.Errorf("state signing key is not configured")
	}
	if s.IssuedAt == 0 {
		s.IssuedAt = time.Now().Unix()
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)

	return base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// DecodeState verifies the signature and freshness of an encoded state.
func DecodeState(key, encoded string) (*State, error) {
	if key == "" {
		return nil, fmt.Errorf("state signing key is not configured")
	}

	var payloadPart, macPart string
	for i := 0; i < len(encoded); i++ {
		if encoded[i] == '.' {
			payloadPart, macPart = encoded[:i], encoded[i+1:]
			break
		}
	}
	if payloadPart == "" || macPart == "" {
		return nil, fmt.Errorf("malformed state")
	}

	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return nil, fmt.Errorf("malformed state")
	}
	gotMAC, err := base64.RawURLEncoding.DecodeString(macPart)
	if err != nil {
		return nil, fmt.Errorf("malformed state")
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), gotMAC) {
		return nil, fmt.Errorf("state signature mismatch")
	}

	var s State
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("malformed state")
	}

	if time.Since(time.Unix(s.IssuedAt, 0)) > stateTTL {
		return nil, fmt.Errorf("state expired")
	}
	return &s, nil
}
