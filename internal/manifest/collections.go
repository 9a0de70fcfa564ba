package manifest

import (
	"errors"
	"slices"
	"strings"
)

// ErrCollectionCycle is the structural error returned when a ParentID
// assignment (or a merge result) would turn the collection forest into a
// cycle. The operation is rejected and the caller's manifest is preserved.
var ErrCollectionCycle = errors.New("collection hierarchy cycle")

// wouldCreateCycle reports whether setting parentID on collection id would
// make id an ancestor of itself. The walk is iterative with a visited set,
// so malformed or very deep hierarchies cannot blow the stack.
func (m Manifest) wouldCreateCycle(id, parentID string) bool {
	if parentID == "" {
		return false
	}
	if parentID == id {
		return true
	}

	parents := make(map[string]string, len(m.Collections))
	for _, c := range m.Collections {
		parents[c.ID] = c.ParentID
	}

	visited := map[string]struct{}{id: {}}
	cur := parentID
	for cur != "" {
		if _, seen := visited[cur]; seen {
			return true
		}
		visited[cur] = struct{}{}
		cur = parents[cur]
	}
	return false
}

// validateAcyclic checks the whole collection forest, as after a merge
// where both sides contributed ParentID edges.
func (m Manifest) validateAcyclic() error {
	parents := make(map[string]string, len(m.Collections))
	for _, c := range m.Collections {
		parents[c.ID] = c.ParentID
	}

	for _, c := range m.Collections {
		visited := map[string]struct{}{}
		cur := c.ID
		for cur != "" {
			if _, seen := visited[cur]; seen {
				return ErrCollectionCycle
			}
			visited[cur] = struct{}{}
			cur = parents[cur]
		}
	}
	return nil
}

// BookmarkSort selects the ordering of bookmarks within a collection view.
type BookmarkSort string

const (
	SortByUpdated BookmarkSort = "updated_at"
	SortByTitle   BookmarkSort = "title"
)

// BookmarksForCollection returns the bookmarks matched by the collection's
// tag filter, sorted. An empty filter matches nothing: membership is
// defined exclusively by tags, never by Bookmark.CollectionID.
func BookmarksForCollection(c Collection, items []Bookmark, sort BookmarkSort) []Bookmark {
	if len(c.TagFilter.TagIDs) == 0 {
		return []Bookmark{}
	}

	matching := make([]Bookmark, 0, len(items))
	for _, b := range items {
		var match bool
		if c.TagFilter.Mode == FilterAll {
			match = true
			for _, id := range c.TagFilter.TagIDs {
				if !slices.Contains(b.Tags, id) {
					match = false
					break
				}
			}
		} else {
			for _, id := range c.TagFilter.TagIDs {
				if slices.Contains(b.Tags, id) {
					match = true
					break
				}
			}
		}
		if match {
			matching = append(matching, b)
		}
	}

	if sort == SortByTitle {
		slices.SortStableFunc(matching, func(a, b Bookmark) int { return strings.Compare(a.Title, b.Title) })
	} else {
		// newest first
		slices.SortStableFunc(matching, func(a, b Bookmark) int {
			switch {
			case a.UpdatedAt > b.UpdatedAt:
				return -1
			case a.UpdatedAt < b.UpdatedAt:
				return 1
			}
			return 0
		})
	}
	return matching
}

// CountPerCollection returns bookmark counts keyed by collection ID.
func CountPerCollection(collections []Collection, items []Bookmark) map[string]int {
	counts := make(map[string]int, len(collections))
	for _, c := range collections {
		counts[c.ID] = len(BookmarksForCollection(c, items, SortByUpdated))
	}
	return counts
}

// Hierarchy groups collections into roots and a children map keyed by
// parent ID, for tree rendering.
func Hierarchy(collections []Collection) (roots []Collection, children map[string][]Collection) {
	children = make(map[string][]Collection)
	for _, c := range collections {
		if c.ParentID == "" {
			roots = append(roots, c)
		} else {
			children[c.ParentID] = append(children[c.ParentID], c)
		}
	}
	return roots, children
}

// CollectionWithDepth pairs a collection with its nesting depth.
type CollectionWithDepth struct {
	Collection Collection
	Depth      int
}

// FlattenWithDepth walks the forest depth-first, ordering siblings by Order
// then name, and returns a flat list with depth information.
func FlattenWithDepth(collections []Collection) []CollectionWithDepth {
	roots, children := Hierarchy(collections)

	sortSiblings := func(cs []Collection) {
		slices.SortStableFunc(cs, func(a, b Collection) int {
			switch {
			case a.Order < b.Order:
				return -1
			case a.Order > b.Order:
				return 1
			}
			return strings.Compare(a.Name, b.Name)
		})
	}
	sortSiblings(roots)

	var out []CollectionWithDepth
	var walk func(cs []Collection, depth int)
	walk = func(cs []Collection, depth int) {
		for _, c := range cs {
			out = append(out, CollectionWithDepth{Collection: c, Depth: depth})
			kids := children[c.ID]
			sortSiblings(kids)
			walk(kids, depth+1)
		}
	}
	walk(roots, 0)
	return out
}
