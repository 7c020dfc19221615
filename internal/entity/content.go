package entity

// ContentKind classifies an entry by the role its content id plays within a
// title family.
type ContentKind int

const (
	KindUnknown ContentKind = iota
	KindBase
	KindUpdate
	KindDLC
)

func (k ContentKind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindUpdate:
		return "update"
	case KindDLC:
		return "dlc"
	default:
		return "unknown"
	}
}

func (k ContentKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

func (k *ContentKind) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"base"`:
		*k = KindBase
	case `"update"`:
		*k = KindUpdate
	case `"dlc"`:
		*k = KindDLC
	default:
		*k = KindUnknown
	}

	return nil
}

// ContentEntry represents a single game-package file found in the library.
type ContentEntry struct {
	RelativePath string // Path under the library root, slash-separated
	Name         string // Base name of the file
	Size         int64  // Size in bytes at scan time
	ContentID    string // Identifier parsed from the filename, 16 uppercase hex chars
	Version      uint32 // Version parsed from the filename, 0 when absent
	Kind         ContentKind
	TitleID      string // Base content id of the family this entry belongs to
	ScanIndex    int    // Position in the scan walk, used as a recency proxy
}

// TitleVersions holds every known file for a title family, newest version first.
type TitleVersions struct {
	TitleID string
	Files   []*ContentEntry
}

// TitleInfo is external metadata for a content id (name, artwork URLs).
type TitleInfo struct {
	Name      string `json:"name"`
	IconURL   string `json:"iconUrl"`
	BannerURL string `json:"bannerUrl"`
}
