package catalog

import (
	"sort"
	"strings"

	"gameshelf/internal/entity"
)

type SectionID string

const (
	SectionNew         SectionID = "new"
	SectionRecommended SectionID = "recommended"
	SectionUpdates     SectionID = "updates"
	SectionDLC         SectionID = "dlc"
	SectionAll         SectionID = "all"
)

// SectionInfo describes a section to clients that render a shop front page.
type SectionInfo struct {
	ID    SectionID
	Label string
}

// SectionInfos returns the fixed section descriptors in display order.
func SectionInfos() []SectionInfo {
	return []SectionInfo{
		{ID: SectionNew, Label: "New"},
		{ID: SectionRecommended, Label: "Recommended"},
		{ID: SectionUpdates, Label: "Updates"},
		{ID: SectionDLC, Label: "DLC"},
		{ID: SectionAll, Label: "All"},
	}
}

// Section computes the named view over the deduped catalog. The result is
// deterministic for a given snapshot. Unknown section ids yield an empty
// list.
//
//	new         bases, most recently scanned first
//	recommended bases, content id ascending
//	updates     latest updates, version descending
//	dlc         latest dlc, version descending
//	all         every deduped entry, name ascending
func (c *Catalog) Section(id SectionID) []*entity.ContentEntry {
	switch id {
	case SectionNew:
		return c.basesOrAll(func(out []*entity.ContentEntry) {
			sort.Slice(out, func(i, j int) bool { return out[i].ScanIndex > out[j].ScanIndex })
		})
	case SectionRecommended:
		return c.basesOrAll(func(out []*entity.ContentEntry) {
			sort.Slice(out, func(i, j int) bool { return out[i].ContentID < out[j].ContentID })
		})
	case SectionUpdates:
		return c.byKindVersionDesc(entity.KindUpdate)
	case SectionDLC:
		return c.byKindVersionDesc(entity.KindDLC)
	case SectionAll:
		return c.allByName()
	default:
		return []*entity.ContentEntry{}
	}
}

// basesOrAll collects base entries and falls back to the whole catalog when
// the library holds no bases at all, so sparse libraries still render.
func (c *Catalog) basesOrAll(order func([]*entity.ContentEntry)) []*entity.ContentEntry {
	out := make([]*entity.ContentEntry, 0)
	for _, e := range c.deduped {
		if e.Kind == entity.KindBase || e.Kind == entity.KindUnknown {
			out = append(out, e)
		}
	}

	if len(out) == 0 && len(c.deduped) > 0 {
		return c.allByName()
	}

	order(out)

	return out
}

func (c *Catalog) byKindVersionDesc(kind entity.ContentKind) []*entity.ContentEntry {
	out := make([]*entity.ContentEntry, 0)
	for _, e := range c.deduped {
		if e.Kind == kind {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Version != out[j].Version {
			return out[i].Version > out[j].Version
		}
		if out[i].ContentID != out[j].ContentID {
			return out[i].ContentID < out[j].ContentID
		}

		return out[i].Name < out[j].Name
	})

	return out
}

func (c *Catalog) allByName() []*entity.ContentEntry {
	out := make([]*entity.ContentEntry, len(c.deduped))
	copy(out, c.deduped)

	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}

		return out[i].ContentID < out[j].ContentID
	})

	return out
}
