package signature

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// Header carries the signature on outbound partner requests.
const Header = "airalo-signature"

type Signer struct {
	secret []byte
}

func New(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns lowercase hex HMAC-SHA512 of payload. Empty payload yields "".
func (s *Signer) Sign(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	mac := hmac.New(sha512.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a hex signature over payload in constant time.
func (s *Signer) Verify(payload []byte, provided string) bool {
	if len(payload) == 0 || provided == "" {
		return false
	}
	got, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, s.secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), got)
}
