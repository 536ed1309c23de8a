// Package pickupcode issues the one-time codes customers show at the cart.
//
// A code is a keyed BLAKE2b-256 MAC over the order, user and event ids
// plus a random nonce, truncated and base32 encoded. Codes are not
// decoded on redemption; the store looks them up verbatim, so the MAC
// only makes codes unguessable and unique per issuance.
package pickupcode

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// Length of every issued code.
	Length = 32

	nonceSize = 16
	macBytes  = 20
	minSecret = 16
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

var ErrSecretTooShort = errors.New("pickup code secret must be at least 16 bytes")

type Issuer struct {
	secret []byte
	rand   io.Reader
}

func NewIssuer(secret []byte) (*Issuer, error) {
	return newIssuer(secret, rand.Reader)
}

func newIssuer(secret []byte, r io.Reader) (*Issuer, error) {
	if len(secret) < minSecret {
		return nil, ErrSecretTooShort
	}
	// blake2b keys are capped at 64 bytes
	if len(secret) > blake2b.Size {
		sum := blake2b.Sum256(secret)
		secret = sum[:]
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Issuer{secret: key, rand: r}, nil
}

// Issue returns a fresh code bound to the given ids.
func (i *Issuer) Issue(orderID, userID, eventID string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(i.rand, nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}

	mac, err := blake2b.New256(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to init mac: %w", err)
	}
	for _, part := range []string{orderID, userID, eventID} {
		mac.Write([]byte(part))
		mac.Write([]byte{'|'})
	}
	mac.Write(nonce)

	return encoding.EncodeToString(mac.Sum(nil)[:macBytes]), nil
}

// Normalize upper-cases and trims user input. It reports false when the
// result cannot be a code this package issued.
func Normalize(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != Length {
		return "", false
	}
	if _, err := encoding.DecodeString(c); err != nil {
		return "", false
	}
	return c, true
}
