package fsadapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gameshelf/internal/entity"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		id         string
		version    uint32
		hasID      bool
		hasVersion bool
	}{
		{
			name:       "id and bracketed version",
			input:      "Some Game [0100ABCD00010000][v131072].nsp",
			id:         "0100ABCD00010000",
			version:    131072,
			hasID:      true,
			hasVersion: true,
		},
		{
			name:       "id only",
			input:      "Another Game [0100ABCD00010000].xci",
			id:         "0100ABCD00010000",
			hasID:      true,
			hasVersion: false,
		},
		{
			name:       "lowercase id is uppercased",
			input:      "game [0100abcd00010800][v65536].nsp",
			id:         "0100ABCD00010800",
			version:    65536,
			hasID:      true,
			hasVersion: true,
		},
		{
			name:       "bare version token",
			input:      "game 0100ABCD00010000 v3.nsp",
			id:         "0100ABCD00010000",
			version:    3,
			hasID:      true,
			hasVersion: true,
		},
		{
			name:       "no id",
			input:      "readme.nsp",
			hasID:      false,
			hasVersion: false,
		},
		{
			name:       "version zero",
			input:      "A [1111111111111111][v0].nsp",
			id:         "1111111111111111",
			version:    0,
			hasID:      true,
			hasVersion: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseName(tt.input)

			require.Equal(t, tt.hasID, parsed.HasID)
			require.Equal(t, tt.hasVersion, parsed.HasVersion)
			if tt.hasID {
				require.Equal(t, tt.id, parsed.ContentID)
			}
			if tt.hasVersion {
				require.Equal(t, tt.version, parsed.Version)
			}
		})
	}
}

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		name string
		id   string
		file string
		kind entity.ContentKind
	}{
		{"suffix 000 is base", "0100ABCD00010000", "Game.nsp", entity.KindBase},
		{"suffix 800 is update", "0100ABCD00010800", "Game.nsp", entity.KindUpdate},
		{"other suffix is dlc", "0100ABCD00011001", "Game.nsp", entity.KindDLC},
		{"update token on off-range suffix", "0100ABCD00011001", "Game Update.nsp", entity.KindUpdate},
		{"dlc token", "0100ABCD00011001", "Game DLC Pack.nsp", entity.KindDLC},
		{"short id is unknown", "ABCD", "Game.nsp", entity.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.kind, ClassifyContent(tt.id, tt.file))
		})
	}
}

func TestDeriveBaseContentID(t *testing.T) {
	tests := []struct {
		name string
		kind entity.ContentKind
		id   string
		base string
	}{
		{"update maps to 000 suffix", entity.KindUpdate, "0100ABCD00010800", "0100ABCD00010000"},
		{"dlc decrements high part", entity.KindDLC, "0100ABCD00011001", "0100ABCD00010000"},
		{"dlc keeps leading zeros", entity.KindDLC, "0000000000001001", "0000000000000000"},
		{"dlc with zero high part has no base", entity.KindDLC, "0000000000000001", ""},
		{"base maps to itself", entity.KindBase, "0100abcd00010000", "0100ABCD00010000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.base, DeriveBaseContentID(tt.kind, tt.id))
		})
	}
}
