package crypto

import (
	"crypto/rand"

	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// Session tokens are 16 characters drawn from the lowercase alphabet. The
// format is fixed for client compatibility; the bytes come from crypto/rand
// rather than a seeded PRNG.
const (
	sessionIDLength  = 16
	sessionIDCharset = "abcdefghijklmnopqrstuvwxyz"
)

type randomTokenSource struct{}

func NewRandomTokenSource() outbound.TokenSource {
	return &randomTokenSource{}
}

func (t *randomTokenSource) NewSessionID() string {
	buf := make([]byte, sessionIDLength)
	if _, err := rand.Read(buf); err != nil {
		// no entropy source means no safe token can be minted
		panic("crypto/rand unavailable: " + err.Error())
	}

	id := make([]byte, sessionIDLength)
	for i, b := range buf {
		id[i] = sessionIDCharset[int(b)%len(sessionIDCharset)]
	}
	return string(id)
}
