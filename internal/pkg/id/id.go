package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable by
// creation time; token ids use them so two tokens issued within the same
// second still differ.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
