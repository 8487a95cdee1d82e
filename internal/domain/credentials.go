package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

type Environment string

const (
	Sandbox    Environment = "sandbox"
	Production Environment = "production"
)

func (e Environment) Valid() bool {
	return e == Sandbox || e == Production
}

type Credentials struct {
	ClientID     string
	ClientSecret string
	Environment  Environment
}

// Encode returns the form encoded client_id/client_secret pair.
func (c Credentials) Encode() string {
	v := url.Values{}
	v.Set("client_id", c.ClientID)
	v.Set("client_secret", c.ClientSecret)
	return v.Encode()
}

// Fingerprint identifies a credentials pair without exposing the secret.
func (c Credentials) Fingerprint() string {
	sum := sha256.Sum256([]byte(c.Encode()))
	return hex.EncodeToString(sum[:])
}
