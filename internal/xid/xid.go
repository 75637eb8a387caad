// Package xid mints the catalog's prefixed identifiers, such as
// "prod-…" for products, "offer-…" for offers and "so-…" for sales
// orders. The prefix keeps ids self-describing in logs and in the
// console, the timestamp keeps them roughly sortable by creation.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns a fresh id of the form prefix-unixnano-randomhex. The
// random suffix is dropped only if the system entropy source fails.
func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
