// Package manifest defines the versioned bookmark manifest: the single JSON
// document holding all bookmarks, tags, and collections for a vault. The
// package owns the document schema, the tolerant decoder for the wire shape,
// the pure mutation API, and the three-way merge used to reconcile
// divergent edits.
package manifest

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

// FilterMode selects how a collection's tag filter matches bookmarks.
type FilterMode string

const (
	// FilterAny matches bookmarks carrying at least one of the filter tags.
	FilterAny FilterMode = "any"
	// FilterAll matches bookmarks carrying every filter tag.
	FilterAll FilterMode = "all"
)

// Manifest is the unit of synchronization. Version is server-assigned on
// every successful save; 0 means the manifest has never been saved.
// ChainHead is an opaque append-only chain reference carried through
// untouched.
type Manifest struct {
	Version     int64        `json:"version"`
	ChainHead   string       `json:"chain_head,omitempty"`
	Items       []Bookmark   `json:"items"`
	Tags        []Tag        `json:"tags"`
	Collections []Collection `json:"collections,omitempty"`
}

// Bookmark is a single saved link. Tags holds tag IDs; timestamps are epoch
// milliseconds with UpdatedAt >= CreatedAt.
type Bookmark struct {
	ID           string   `json:"id"`
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Note         string   `json:"note,omitempty"`
	Picture      string   `json:"picture,omitempty"`
	Tags         []string `json:"tags"`
	CollectionID string   `json:"collectionId,omitempty"`
	Pinned       bool     `json:"pinned,omitempty"`
	CreatedAt    int64    `json:"created_at"`
	UpdatedAt    int64    `json:"updated_at"`
}

// Tag names are unique case-insensitively within a manifest.
type Tag struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hidden bool   `json:"hidden,omitempty"`
}

// TagFilter defines which bookmarks a collection logically contains.
type TagFilter struct {
	Mode   FilterMode `json:"mode"`
	TagIDs []string   `json:"tagIds"`
}

// Collection is a tag-filter-defined view over bookmarks, optionally nested
// under a parent. ParentID links form a forest; cycles are rejected by the
// mutation API and the merge guard.
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	ParentID  string    `json:"parentId,omitempty"`
	TagFilter TagFilter `json:"tagFilter"`
	Order     int64     `json:"order,omitempty"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

// Empty returns a never-saved manifest with initialized (non-nil) sets.
func Empty() Manifest {
	return Manifest{
		Items:       []Bookmark{},
		Tags:        []Tag{},
		Collections: []Collection{},
	}
}

// Clone returns a deep copy. Mutation functions operate on clones so the
// caller's manifest is never modified in place.
func (m Manifest) Clone() Manifest {
	out := m
	out.Items = make([]Bookmark, len(m.Items))
	for i, b := range m.Items {
		out.Items[i] = b
		out.Items[i].Tags = slices.Clone(b.Tags)
	}
	out.Tags = slices.Clone(m.Tags)
	out.Collections = make([]Collection, len(m.Collections))
	for i, c := range m.Collections {
		out.Collections[i] = c
		out.Collections[i].TagFilter.TagIDs = slices.Clone(c.TagFilter.TagIDs)
	}
	return out
}

// normalize sorts every set by ID (and tag references lexicographically) so
// that Encode produces identical bytes for logically identical manifests.
func (m *Manifest) normalize() {
	slices.SortFunc(m.Items, func(a, b Bookmark) int { return strings.Compare(a.ID, b.ID) })
	for i := range m.Items {
		slices.Sort(m.Items[i].Tags)
	}
	slices.SortFunc(m.Tags, func(a, b Tag) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(m.Collections, func(a, b Collection) int { return strings.Compare(a.ID, b.ID) })
	for i := range m.Collections {
		slices.Sort(m.Collections[i].TagFilter.TagIDs)
	}
}

// Encode marshals the manifest into its canonical wire form: sets sorted by
// ID, deterministic byte output. Required so that retrying a save after a
// merge re-encrypts exactly the same plaintext.
func Encode(m Manifest) ([]byte, error) {
	c := m.Clone()
	c.normalize()
	if c.Items == nil {
		c.Items = []Bookmark{}
	}
	if c.Tags == nil {
		c.Tags = []Tag{}
	}
	return json.Marshal(c)
}

// Decode parses manifest JSON tolerantly. Missing or malformed fields
// degrade to their zero set instead of failing: untyped JSON never flows
// past this boundary. A manifest that does not parse at all comes back
// empty at serverVersion, and a parsed manifest with Version 0 adopts
// serverVersion as well.
func Decode(data []byte, serverVersion int64) Manifest {
	m := Manifest{Version: serverVersion}

	var raw struct {
		Version     json.RawMessage `json:"version"`
		ChainHead   json.RawMessage `json:"chain_head"`
		Items       json.RawMessage `json:"items"`
		Tags        json.RawMessage `json:"tags"`
		Collections json.RawMessage `json:"collections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Empty().withVersion(serverVersion)
	}

	var version int64
	if err := json.Unmarshal(raw.Version, &version); err == nil && version != 0 {
		m.Version = version
	}
	var chainHead string
	if err := json.Unmarshal(raw.ChainHead, &chainHead); err == nil {
		m.ChainHead = chainHead
	}

	if err := json.Unmarshal(raw.Items, &m.Items); err != nil || m.Items == nil {
		m.Items = []Bookmark{}
	}
	if err := json.Unmarshal(raw.Tags, &m.Tags); err != nil || m.Tags == nil {
		m.Tags = []Tag{}
	}
	if err := json.Unmarshal(raw.Collections, &m.Collections); err != nil || m.Collections == nil {
		m.Collections = []Collection{}
	}

	for i := range m.Items {
		if m.Items[i].Tags == nil {
			m.Items[i].Tags = []string{}
		}
	}
	for i := range m.Collections {
		if m.Collections[i].TagFilter.TagIDs == nil {
			m.Collections[i].TagFilter.TagIDs = []string{}
		}
	}

	return m
}

func (m Manifest) withVersion(v int64) Manifest {
	m.Version = v
	return m
}

// Equal reports content equality ignoring Version: two manifests holding
// the same bookmarks, tags, collections, and chain head compare equal even
// if the server has assigned them different version numbers.
func Equal(a, b Manifest) bool {
	ca, cb := a.Clone(), b.Clone()
	ca.Version, cb.Version = 0, 0
	ea, errA := Encode(ca)
	eb, errB := Encode(cb)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}

// TagByID returns the tag with the given ID, or false.
func (m Manifest) TagByID(id string) (Tag, bool) {
	for _, t := range m.Tags {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

// BookmarkByID returns the bookmark with the given ID, or false.
func (m Manifest) BookmarkByID(id string) (Bookmark, bool) {
	for _, b := range m.Items {
		if b.ID == id {
			return b, true
		}
	}
	return Bookmark{}, false
}

// CollectionByID returns the collection with the given ID, or false.
func (m Manifest) CollectionByID(id string) (Collection, bool) {
	for _, c := range m.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return Collection{}, false
}
