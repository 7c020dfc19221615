package fsadapter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gameshelf/internal/entity"
)

const contentIDLen = 16

var (
	contentIDRegexp = regexp.MustCompile(`(?i)([0-9a-f]{16})`)
	versionRegexp   = regexp.MustCompile(`(?i)\[v(\d+)\]|(?:^|[^\w])v(\d+)`)
	tokenSplitter   = regexp.MustCompile(`[^a-z0-9]+`)
)

// ParsedName is the outcome of the filename heuristics. Parsing is
// best-effort: a name without a recognizable content id yields HasID=false,
// which is a skip, not an error.
type ParsedName struct {
	ContentID  string
	Version    uint32
	HasID      bool
	HasVersion bool
}

// ParseName extracts a content id and version from a file or directory name.
// The id is a run of 16 hex digits anywhere in the name, usually bracketed;
// the version comes from a "[vN]" tag or a standalone "vN" token.
func ParseName(name string) ParsedName {
	var parsed ParsedName

	if m := contentIDRegexp.FindStringSubmatch(name); m != nil {
		parsed.ContentID = strings.ToUpper(m[1])
		parsed.HasID = true
	}

	if m := versionRegexp.FindStringSubmatch(name); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}

		if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
			parsed.Version = uint32(v)
			parsed.HasVersion = true
		}
	}

	return parsed
}

// ClassifyContent infers the content kind. The id suffix is decisive when it
// matches the well-known base/update ranges; otherwise explicit "update" or
// "dlc" tokens in the name are consulted, and an off-range suffix itself
// counts as a DLC marker.
func ClassifyContent(contentID, name string) entity.ContentKind {
	if len(contentID) != contentIDLen {
		return entity.KindUnknown
	}

	switch {
	case strings.HasSuffix(contentID, "000"):
		return entity.KindBase
	case strings.HasSuffix(contentID, "800"):
		return entity.KindUpdate
	}

	for _, token := range tokenSplitter.Split(strings.ToLower(name), -1) {
		switch token {
		case "update":
			return entity.KindUpdate
		case "dlc":
			return entity.KindDLC
		}
	}

	return entity.KindDLC
}

// DeriveBaseContentID computes the content id the base title of an entry
// would carry: updates swap the suffix for 000, DLC additionally decrements
// the 13-digit high part. The result is a candidate only; whether such a
// base exists is decided against the scanned set.
func DeriveBaseContentID(kind entity.ContentKind, contentID string) string {
	if len(contentID) != contentIDLen || !isHex(contentID) {
		return ""
	}

	normalized := strings.ToUpper(contentID)
	switch kind {
	case entity.KindUpdate:
		return normalized[:contentIDLen-3] + "000"
	case entity.KindDLC:
		high, err := strconv.ParseUint(normalized[:contentIDLen-3], 16, 64)
		if err != nil || high == 0 {
			return ""
		}

		return fmt.Sprintf("%013X000", high-1)
	default:
		return normalized
	}
}

func isHex(s string) bool {
	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}

	return true
}
