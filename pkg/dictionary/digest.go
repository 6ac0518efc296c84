package dictionary

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest returns the hex BLAKE3-256 hash of the serialized dictionary. Equal
// dictionaries have equal digests regardless of formatting or comments in
// their source text.
func (d *Dictionary) Digest() string {
	h := blake3.New()
	d.Write(h)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryDigest hashes a single entry with its keyword.
func EntryDigest(e *Entry) string {
	h := blake3.New()
	e.Write(h, 0)
	return hex.EncodeToString(h.Sum(nil))
}
