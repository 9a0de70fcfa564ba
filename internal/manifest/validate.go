package manifest

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Validation limits for user-entered manifest content.
const (
	MaxTagsPerBookmark      = 15
	MaxTagNameLength        = 32
	MaxCollectionNameLength = 50
)

// allowedSchemes lists URL schemes accepted for bookmarks. Bookmarklets
// (javascript:) and local resources are legitimate bookmark targets.
var allowedSchemes = []string{"http", "https", "javascript", "file", "data", "about"}

// ValidationError reports invalid user input. It is recovered locally and
// surfaced as a message; validation failures are never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func validationErr(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidURL reports whether raw parses as a URL with an allowed scheme.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return slices.Contains(allowedSchemes, strings.ToLower(u.Scheme))
}

// validateTagName checks the name rules shared by create and rename.
// excludeID skips one tag during the duplicate check so a tag can be
// renamed to a different casing of its own name.
func (m Manifest) validateTagName(name, excludeID string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return validationErr("name", "tag name is required")
	}
	if len(trimmed) > MaxTagNameLength {
		return validationErr("name", "tag name cannot exceed %d characters", MaxTagNameLength)
	}
	for _, t := range m.Tags {
		if t.ID != excludeID && strings.EqualFold(t.Name, trimmed) {
			return validationErr("name", "tag %q already exists", t.Name)
		}
	}
	return nil
}

func validateCollectionName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return validationErr("name", "collection name is required")
	}
	if len(trimmed) > MaxCollectionNameLength {
		return validationErr("name", "collection name cannot exceed %d characters", MaxCollectionNameLength)
	}
	return nil
}

// validateBookmarkInput checks URL, title, and tag constraints against the
// owning manifest (referenced tag IDs must exist).
func (m Manifest) validateBookmarkInput(in BookmarkInput) error {
	u := strings.TrimSpace(in.URL)
	if u == "" {
		return validationErr("url", "url is required")
	}
	if !IsValidURL(u) {
		return validationErr("url", "invalid url %q", u)
	}
	if strings.TrimSpace(in.Title) == "" {
		return validationErr("title", "title is required")
	}
	if len(in.Tags) > MaxTagsPerBookmark {
		return validationErr("tags", "at most %d tags per bookmark", MaxTagsPerBookmark)
	}
	for _, id := range in.Tags {
		if _, ok := m.TagByID(id); !ok {
			return validationErr("tags", "unknown tag id %q", id)
		}
	}
	if in.CollectionID != "" {
		if _, ok := m.CollectionByID(in.CollectionID); !ok {
			return validationErr("collectionId", "unknown collection id %q", in.CollectionID)
		}
	}
	return nil
}

func (m Manifest) validateTagFilter(f TagFilter) error {
	if f.Mode != FilterAny && f.Mode != FilterAll {
		return validationErr("tagFilter.mode", "mode must be %q or %q", FilterAny, FilterAll)
	}
	for _, id := range f.TagIDs {
		if _, ok := m.TagByID(id); !ok {
			return validationErr("tagFilter.tagIds", "unknown tag id %q", id)
		}
	}
	return nil
}
