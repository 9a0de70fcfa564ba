package manifest

import (
	"fmt"
	"slices"
)

// MergeResult is the outcome of a three-way merge. Conflicts lists every
// field or record where base, local, and remote all diverged; those spots
// were resolved in remote's favor, and the list exists for observability,
// not as a failure signal.
type MergeResult struct {
	Merged       Manifest
	HasConflicts bool
	Conflicts    []string
}

// ThreeWayMerge reconciles two divergent manifests against their common
// ancestor.
//
// Policy, field by field:
//   - Scalars (version, chain_head): remote wins. A true three-way
//     divergence is recorded as a conflict but still takes remote's value.
//   - ID-keyed sets (items, tags, collections): start from remote, add
//     records that only local created, drop records local deleted that
//     remote still carries (deletion wins over no-op). A record edited
//     differently on both sides is recorded by ID and resolved as remote.
//
// After the sets are merged, referential integrity is restored: tag IDs no
// longer present are stripped from every bookmark and tag filter, and the
// collection forest is re-checked for cycles. A cycle rejects the whole
// merge with ErrCollectionCycle rather than silently applying it.
//
// The merge is deterministic: identical inputs produce byte-identical
// output (sets are normalized, conflicts sorted), which keeps optimistic
// retries idempotent.
func ThreeWayMerge(base, local, remote Manifest) (MergeResult, error) {
	var conflicts []string

	merged := remote.Clone()

	if base.Version != local.Version && base.Version != remote.Version && local.Version != remote.Version {
		conflicts = append(conflicts, "version")
	}
	if base.ChainHead != local.ChainHead && base.ChainHead != remote.ChainHead && local.ChainHead != remote.ChainHead {
		conflicts = append(conflicts, "chain_head")
	}

	merged.Items = mergeSet(base.Items, local.Items, remote.Items,
		func(b Bookmark) string { return b.ID }, bookmarksDiffer, "item", &conflicts)
	merged.Tags = mergeSet(base.Tags, local.Tags, remote.Tags,
		func(t Tag) string { return t.ID }, tagsDiffer, "tag", &conflicts)
	merged.Collections = mergeSet(base.Collections, local.Collections, remote.Collections,
		func(c Collection) string { return c.ID }, collectionsDiffer, "collection", &conflicts)

	// Tag deletion cascade: anything referencing a tag that did not
	// survive the merge is cleaned up in the same result.
	live := make(map[string]struct{}, len(merged.Tags))
	for _, t := range merged.Tags {
		live[t.ID] = struct{}{}
	}
	removed := map[string]struct{}{}
	for _, b := range merged.Items {
		for _, id := range b.Tags {
			if _, ok := live[id]; !ok {
				removed[id] = struct{}{}
			}
		}
	}
	for _, c := range merged.Collections {
		for _, id := range c.TagFilter.TagIDs {
			if _, ok := live[id]; !ok {
				removed[id] = struct{}{}
			}
		}
	}
	if len(removed) > 0 {
		stripTagReferences(&merged, removed)
	}

	if err := merged.validateAcyclic(); err != nil {
		return MergeResult{}, err
	}

	merged.normalize()
	slices.Sort(conflicts)

	return MergeResult{
		Merged:       merged,
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
	}, nil
}

// mergeSet applies the set policy to one ID-keyed collection and appends
// per-record conflicts to conflicts as "<kind>:<id>".
func mergeSet[T any](base, local, remote []T, id func(T) string, differ func(a, b T) bool, kind string, conflicts *[]string) []T {
	baseByID := indexByID(base, id)
	localByID := indexByID(local, id)
	remoteByID := indexByID(remote, id)

	out := make(map[string]T, len(remote))
	for k, v := range remoteByID {
		out[k] = v
	}

	// local-only additions: present in local, absent from base and remote
	for k, v := range localByID {
		if _, inBase := baseByID[k]; inBase {
			continue
		}
		if _, inRemote := remoteByID[k]; inRemote {
			continue
		}
		out[k] = v
	}

	// local deletions: present in base, absent locally, still in remote
	for k := range baseByID {
		_, inLocal := localByID[k]
		_, inRemote := remoteByID[k]
		if !inLocal && inRemote {
			delete(out, k)
		}
	}

	// conflicting edits: all three present, all three pairwise different
	for k, b := range baseByID {
		l, inLocal := localByID[k]
		r, inRemote := remoteByID[k]
		if inLocal && inRemote && differ(b, l) && differ(b, r) && differ(l, r) {
			*conflicts = append(*conflicts, fmt.Sprintf("%s:%s", kind, k))
		}
	}

	result := make([]T, 0, len(out))
	for _, v := range out {
		result = append(result, v)
	}
	return result
}

func indexByID[T any](set []T, id func(T) string) map[string]T {
	m := make(map[string]T, len(set))
	for _, v := range set {
		m[id(v)] = v
	}
	return m
}

func bookmarksDiffer(a, b Bookmark) bool {
	if a.ID != b.ID || a.URL != b.URL || a.Title != b.Title || a.Note != b.Note ||
		a.Picture != b.Picture || a.CollectionID != b.CollectionID || a.Pinned != b.Pinned ||
		a.CreatedAt != b.CreatedAt || a.UpdatedAt != b.UpdatedAt {
		return true
	}
	return !slices.Equal(normalizeTagRefs(a.Tags), normalizeTagRefs(b.Tags))
}

func tagsDiffer(a, b Tag) bool {
	return a != b
}

func collectionsDiffer(a, b Collection) bool {
	if a.ID != b.ID || a.Name != b.Name || a.Icon != b.Icon || a.ParentID != b.ParentID ||
		a.Order != b.Order || a.CreatedAt != b.CreatedAt || a.UpdatedAt != b.UpdatedAt ||
		a.TagFilter.Mode != b.TagFilter.Mode {
		return true
	}
	return !slices.Equal(normalizeTagRefs(a.TagFilter.TagIDs), normalizeTagRefs(b.TagFilter.TagIDs))
}
