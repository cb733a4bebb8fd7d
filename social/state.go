package social

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// StateManager issues and checks the opaque state value that rides the
// OAuth redirect round trip.
type StateManager interface {
	Issue(redirect string) (string, error)
	Verify(state string) (redirect string, err error)
}

type statePayload struct {
	Nonce    string `json:"n"`
	Redirect string `json:"r,omitempty"`
	IssuedAt int64  `json:"iat"`
}

// HMACStateManager signs the state payload so it cannot be forged or
// replayed past its TTL. Nothing is stored server-side.
type HMACStateManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewHMACStateManager(key []byte, ttl time.Duration) *HMACStateManager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &HMACStateManager{
		key: key,
		ttl: ttl,
		now: time.Now,
	}
}

func (m *HMACStateManager) WithClock(now func() time.Time) *HMACStateManager {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *HMACStateManager) Issue(redirect string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "state nonce generation failed")
	}

	payload, err := json.Marshal(statePayload{
		Nonce:    base64.RawURLEncoding.EncodeToString(nonce),
		Redirect: redirect,
		IssuedAt: m.now().Unix(),
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "state encoding failed")
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + m.sign(encoded), nil
}

func (m *HMACStateManager) Verify(state string) (string, error) {
	dot := -1
	for i := len(state) - 1; i >= 0; i-- {
		if state[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return "", ErrInvalidState
	}

	encoded, sig := state[:dot], state[dot+1:]
	if !hmac.Equal([]byte(m.sign(encoded)), []byte(sig)) {
		return "", ErrInvalidState
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidState
	}

	var payload statePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", ErrInvalidState
	}

	if m.now().Sub(time.Unix(payload.IssuedAt, 0)) > m.ttl {
		return "", ErrStateExpired
	}

	return payload.Redirect, nil
}

func (m *HMACStateManager) sign(data string) string {
	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
