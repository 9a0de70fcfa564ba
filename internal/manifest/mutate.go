package manifest

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mutation API. Every operation is a pure transform: it clones the input
// manifest, applies a structural edit, and returns the result. The caller
// (the sync session) is the single writer responsible for persisting the
// outcome; on error the returned manifest is the zero value and the input
// is untouched.

var nowMillis = func() int64 { return time.Now().UnixMilli() }

// BookmarkInput carries user-entered bookmark fields.
type BookmarkInput struct {
	URL          string
	Title        string
	Note         string
	Picture      string
	Tags         []string
	CollectionID string
	Pinned       bool
}

// CollectionInput carries user-entered collection fields.
type CollectionInput struct {
	Name      string
	Icon      string
	ParentID  string
	TagFilter TagFilter
	Order     int64
}

// CreateTag adds a tag. Fails if the name is empty, too long, or a
// case-insensitive duplicate.
func CreateTag(m Manifest, name string, hidden bool) (Manifest, Tag, error) {
	if err := m.validateTagName(name, ""); err != nil {
		return Manifest{}, Tag{}, err
	}

	tag := Tag{ID: uuid.NewString(), Name: strings.TrimSpace(name), Hidden: hidden}
	out := m.Clone()
	out.Tags = append(out.Tags, tag)
	return out, tag, nil
}

// RenameTag changes a tag's name with the same validation as CreateTag,
// excluding the tag itself from the duplicate check.
func RenameTag(m Manifest, id, newName string) (Manifest, error) {
	if _, ok := m.TagByID(id); !ok {
		return Manifest{}, validationErr("id", "unknown tag id %q", id)
	}
	if err := m.validateTagName(newName, id); err != nil {
		return Manifest{}, err
	}

	out := m.Clone()
	for i := range out.Tags {
		if out.Tags[i].ID == id {
			out.Tags[i].Name = strings.TrimSpace(newName)
		}
	}
	return out, nil
}

// SetTagHidden toggles a tag's hidden flag.
func SetTagHidden(m Manifest, id string, hidden bool) (Manifest, error) {
	if _, ok := m.TagByID(id); !ok {
		return Manifest{}, validationErr("id", "unknown tag id %q", id)
	}

	out := m.Clone()
	for i := range out.Tags {
		if out.Tags[i].ID == id {
			out.Tags[i].Hidden = hidden
		}
	}
	return out, nil
}

// DeleteTag removes a tag and strips it from every bookmark's tag set and
// every collection's tag filter in the same transform, so no reference is
// ever left dangling.
func DeleteTag(m Manifest, id string) (Manifest, error) {
	if _, ok := m.TagByID(id); !ok {
		return Manifest{}, validationErr("id", "unknown tag id %q", id)
	}

	out := m.Clone()
	out.Tags = slices.DeleteFunc(out.Tags, func(t Tag) bool { return t.ID == id })
	stripTagReferences(&out, map[string]struct{}{id: {}})
	return out, nil
}

// AddBookmark validates the input and appends a new bookmark with a fresh
// ID and both timestamps set to now.
func AddBookmark(m Manifest, in BookmarkInput) (Manifest, Bookmark, error) {
	if err := m.validateBookmarkInput(in); err != nil {
		return Manifest{}, Bookmark{}, err
	}

	now := nowMillis()
	b := Bookmark{
		ID:           uuid.NewString(),
		URL:          strings.TrimSpace(in.URL),
		Title:        strings.TrimSpace(in.Title),
		Note:         in.Note,
		Picture:      in.Picture,
		Tags:         normalizeTagRefs(in.Tags),
		CollectionID: in.CollectionID,
		Pinned:       in.Pinned,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	out := m.Clone()
	out.Items = append(out.Items, b)
	return out, b, nil
}

// UpdateBookmark replaces the mutable fields of an existing bookmark.
// CreatedAt is immutable; UpdatedAt is bumped.
func UpdateBookmark(m Manifest, id string, in BookmarkInput) (Manifest, error) {
	if _, ok := m.BookmarkByID(id); !ok {
		return Manifest{}, validationErr("id", "unknown bookmark id %q", id)
	}
	if err := m.validateBookmarkInput(in); err != nil {
		return Manifest{}, err
	}

	out := m.Clone()
	for i := range out.Items {
		if out.Items[i].ID != id {
			continue
		}
		b := &out.Items[i]
		b.URL = strings.TrimSpace(in.URL)
		b.Title = strings.TrimSpace(in.Title)
		b.Note = in.Note
		b.Picture = in.Picture
		b.Tags = normalizeTagRefs(in.Tags)
		b.CollectionID = in.CollectionID
		b.Pinned = in.Pinned
		b.UpdatedAt = nowMillis()
	}
	return out, nil
}

// DeleteBookmark removes a bookmark by ID.
func DeleteBookmark(m Manifest, id string) (Manifest, error) {
	if _, ok := m.BookmarkByID(id); !ok {
		return Manifest{}, validationErr("id", "unknown bookmark id %q", id)
	}

	out := m.Clone()
	out.Items = slices.DeleteFunc(out.Items, func(b Bookmark) bool { return b.ID == id })
	return out, nil
}

// TogglePinned flips a bookmark's pinned flag and bumps UpdatedAt.
func TogglePinned(m Manifest, id string) (Manifest, error) {
	if _, ok := m.BookmarkByID(id); !ok {
		return Manifest{}, validationErr("id", "unknown bookmark id %q", id)
	}

	out := m.Clone()
	for i := range out.Items {
		if out.Items[i].ID == id {
			out.Items[i].Pinned = !out.Items[i].Pinned
			out.Items[i].UpdatedAt = nowMillis()
		}
	}
	return out, nil
}

// CreateCollection validates and appends a new collection. A ParentID must
// reference an existing collection and must not introduce a cycle.
func CreateCollection(m Manifest, in CollectionInput) (Manifest, Collection, error) {
	if err := validateCollectionName(in.Name); err != nil {
		return Manifest{}, Collection{}, err
	}
	if err := m.validateTagFilter(in.TagFilter); err != nil {
		return Manifest{}, Collection{}, err
	}
	if in.ParentID != "" {
		if _, ok := m.CollectionByID(in.ParentID); !ok {
			return Manifest{}, Collection{}, validationErr("parentId", "unknown collection id %q", in.ParentID)
		}
	}

	now := nowMillis()
	c := Collection{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(in.Name),
		Icon:     in.Icon,
		ParentID: in.ParentID,
		TagFilter: TagFilter{
			Mode:   in.TagFilter.Mode,
			TagIDs: normalizeTagRefs(in.TagFilter.TagIDs),
		},
		Order:     in.Order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	out := m.Clone()
	out.Collections = append(out.Collections, c)
	return out, c, nil
}

// UpdateCollection replaces the mutable fields of an existing collection,
// rejecting ParentID assignments that would create a cycle.
func UpdateCollection(m Manifest, id string, in CollectionInput) (Manifest, error) {
	if _, ok := m.CollectionByID(id); !ok {
		return Manifest{}, validationErr("id", "unknown collection id %q", id)
	}
	if err := validateCollectionName(in.Name); err != nil {
		return Manifest{}, err
	}
	if err := m.validateTagFilter(in.TagFilter); err != nil {
		return Manifest{}, err
	}
	if in.ParentID != "" {
		if _, ok := m.CollectionByID(in.ParentID); !ok {
			return Manifest{}, validationErr("parentId", "unknown collection id %q", in.ParentID)
		}
	}
	if m.wouldCreateCycle(id, in.ParentID) {
		return Manifest{}, ErrCollectionCycle
	}

	out := m.Clone()
	for i := range out.Collections {
		if out.Collections[i].ID != id {
			continue
		}
		c := &out.Collections[i]
		c.Name = strings.TrimSpace(in.Name)
		c.Icon = in.Icon
		c.ParentID = in.ParentID
		c.TagFilter = TagFilter{Mode: in.TagFilter.Mode, TagIDs: normalizeTagRefs(in.TagFilter.TagIDs)}
		c.Order = in.Order
		c.UpdatedAt = nowMillis()
	}
	return out, nil
}

// DeleteCollection removes a collection; its children are reparented to
// the deleted node's parent so the rest of the subtree survives.
func DeleteCollection(m Manifest, id string) (Manifest, error) {
	deleted, ok := m.CollectionByID(id)
	if !ok {
		return Manifest{}, validationErr("id", "unknown collection id %q", id)
	}

	out := m.Clone()
	out.Collections = slices.DeleteFunc(out.Collections, func(c Collection) bool { return c.ID == id })
	for i := range out.Collections {
		if out.Collections[i].ParentID == id {
			out.Collections[i].ParentID = deleted.ParentID
		}
	}
	for i := range out.Items {
		if out.Items[i].CollectionID == id {
			out.Items[i].CollectionID = ""
		}
	}
	return out, nil
}

// normalizeTagRefs deduplicates and sorts a tag-ID set.
func normalizeTagRefs(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// stripTagReferences removes the given tag IDs from every bookmark's tag
// set and every collection's tag filter.
func stripTagReferences(m *Manifest, removed map[string]struct{}) {
	for i := range m.Items {
		m.Items[i].Tags = slices.DeleteFunc(m.Items[i].Tags, func(id string) bool {
			_, gone := removed[id]
			return gone
		})
	}
	for i := range m.Collections {
		f := &m.Collections[i].TagFilter
		f.TagIDs = slices.DeleteFunc(f.TagIDs, func(id string) bool {
			_, gone := removed[id]
			return gone
		})
	}
}
