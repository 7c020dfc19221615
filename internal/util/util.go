package util

import (
	"crypto/sha1"
	"encoding/hex"
)

// GetIDFromString derives a stable hex id from a string. Used to key
// download counters by an entry's relative path.
func GetIDFromString(str *string) string {
	hasher := sha1.New()
	hasher.Write([]byte(*str))

	return hex.EncodeToString(hasher.Sum(nil))
}
