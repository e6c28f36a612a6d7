// Package upload signs and performs cover image uploads to the image storage
// provider.
package upload

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // the provider signs upload parameters with HMAC-SHA1
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/feildrixliemdra/library-admin/internal/constants"
)

// AuthParams are the one-time parameters that authorize a client-side upload.
type AuthParams struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
}

// Signer issues AuthParams with the account's private key.
type Signer struct {
	privateKey string
	lifetime   time.Duration
	now        func() time.Time
	newToken   func() (uuid.UUID, error)
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithLifetime sets how long issued parameters stay valid.
func WithLifetime(lifetime time.Duration) SignerOption {
	return func(s *Signer) {
		s.lifetime = lifetime
	}
}

// WithSignerClock replaces time.Now.
func WithSignerClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner creates a signer for privateKey.
func NewSigner(privateKey string, opts ...SignerOption) (*Signer, error) {
	if privateKey == "" {
		return nil, constants.ErrPrivateKeyRequired
	}

	s := &Signer{
		privateKey: privateKey,
		lifetime:   constants.UploadTokenLifetime,
		now:        time.Now,
		newToken:   uuid.NewRandom,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Sign issues a fresh set of parameters.
func (s *Signer) Sign() (*AuthParams, error) {
	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generating upload token: %w", err)
	}

	expire := s.now().Add(s.lifetime).Unix()

	return &AuthParams{
		Token:     token.String(),
		Expire:    expire,
		Signature: Signature(s.privateKey, token.String(), expire),
	}, nil
}

// Signature is the hex HMAC-SHA1 of token followed by expire, keyed with privateKey.
func Signature(privateKey, token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))

	return hex.EncodeToString(mac.Sum(nil))
}
