package catalog

import (
	"sort"
	"strings"

	"gameshelf/internal/adapter/fsadapter"
	"gameshelf/internal/entity"
)

// Catalog is an immutable snapshot of one library scan. It is never mutated
// after Build returns; refreshes construct a new Catalog and swap it in.
type Catalog struct {
	all      []*entity.ContentEntry            // every scanned entry, walk order
	deduped  []*entity.ContentEntry            // one entry per content id, stable order
	latest   map[string]*entity.ContentEntry   // content id -> latest version
	families map[string][]*entity.ContentEntry // base title id -> all entries, version desc
	byPath   map[string]*entity.ContentEntry   // relative path -> entry
}

// Build takes ownership of entries and derives the catalog indices in one
// pass over the scanned set.
//
// Dedup rule: for each content id keep the entry with the greatest version;
// on equal versions the entry seen later in the walk wins.
func Build(entries []*entity.ContentEntry) *Catalog {
	latest := make(map[string]*entity.ContentEntry, len(entries))
	bases := make(map[string]struct{})
	byPath := make(map[string]*entity.ContentEntry, len(entries))

	for _, e := range entries {
		if cur, ok := latest[e.ContentID]; !ok || e.Version >= cur.Version {
			latest[e.ContentID] = e
		}
		if e.Kind == entity.KindBase {
			bases[e.ContentID] = struct{}{}
		}
		byPath[e.RelativePath] = e
	}

	// Attribute each entry to a base seen in the same scan; entries whose
	// base is absent become their own singleton title.
	families := make(map[string][]*entity.ContentEntry)
	for _, e := range entries {
		titleID := e.ContentID
		if candidate := fsadapter.DeriveBaseContentID(e.Kind, e.ContentID); candidate != "" {
			if _, ok := bases[candidate]; ok {
				titleID = candidate
			}
		}
		e.TitleID = titleID
		families[titleID] = append(families[titleID], e)
	}

	for _, family := range families {
		sort.SliceStable(family, func(i, j int) bool {
			if family[i].Version != family[j].Version {
				return family[i].Version > family[j].Version
			}

			return family[i].Name < family[j].Name
		})
	}

	deduped := make([]*entity.ContentEntry, 0, len(latest))
	for _, e := range latest {
		deduped = append(deduped, e)
	}
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].TitleID != deduped[j].TitleID {
			return deduped[i].TitleID < deduped[j].TitleID
		}
		if deduped[i].ContentID != deduped[j].ContentID {
			return deduped[i].ContentID < deduped[j].ContentID
		}

		return deduped[i].Name < deduped[j].Name
	})

	return &Catalog{
		all:      entries,
		deduped:  deduped,
		latest:   latest,
		families: families,
		byPath:   byPath,
	}
}

// Empty returns a catalog with no entries.
func Empty() *Catalog {
	return Build(nil)
}

// Entries returns the deduped catalog: every content id exactly once, at its
// latest known version, in a stable order. The 1-based position in this
// slice is the file id used in shop download URLs.
func (c *Catalog) Entries() []*entity.ContentEntry {
	return c.deduped
}

// All returns every scanned entry including superseded versions.
func (c *Catalog) All() []*entity.ContentEntry {
	return c.all
}

func (c *Catalog) Len() int {
	return len(c.deduped)
}

// Latest resolves a content id to its latest known entry.
func (c *Catalog) Latest(contentID string) (*entity.ContentEntry, bool) {
	e, ok := c.latest[strings.ToUpper(contentID)]

	return e, ok
}

// EntryByID returns the deduped entry at the given 1-based file id.
func (c *Catalog) EntryByID(fileID int) (*entity.ContentEntry, bool) {
	if fileID < 1 || fileID > len(c.deduped) {
		return nil, false
	}

	return c.deduped[fileID-1], true
}

// EntryByPath resolves a slash-separated path relative to the library root.
func (c *Catalog) EntryByPath(relativePath string) (*entity.ContentEntry, bool) {
	e, ok := c.byPath[relativePath]

	return e, ok
}

// Versions returns all known files of a title family, newest version first.
func (c *Catalog) Versions(titleID string) (*entity.TitleVersions, bool) {
	key := strings.ToUpper(titleID)
	family, ok := c.families[key]
	if !ok {
		return nil, false
	}

	return &entity.TitleVersions{TitleID: key, Files: family}, true
}

// Search matches the query case-insensitively against the name, relative
// path and content id of every deduped entry.
func (c *Catalog) Search(query string) []*entity.ContentEntry {
	q := strings.ToLower(query)

	matches := make([]*entity.ContentEntry, 0)
	for _, e := range c.deduped {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.RelativePath), q) ||
			strings.Contains(strings.ToLower(e.ContentID), q) {
			matches = append(matches, e)
		}
	}

	return matches
}
