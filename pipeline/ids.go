package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/blake2b"
)

const nonceSize = 16

// newJobID hashes a random nonce together with the payload.
func newJobID(payload string) string {
	nonce := make([]byte, nonceSize)
	_, _ = rand.Read(nonce)
	h, _ := blake2b.New256(nil)
	h.Write(nonce)
	_, _ = io.WriteString(h, payload)
	return hex.EncodeToString(h.Sum(nil))
}

// compositeIDs issues lexically sortable composite job ids. Not safe for
// concurrent use.
type compositeIDs struct {
	entropy *ulid.MonotonicEntropy
}

func newCompositeIDs() *compositeIDs {
	return &compositeIDs{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (c *compositeIDs) next() string {
	return ulid.MustNew(ulid.Now(), c.entropy).String()
}
