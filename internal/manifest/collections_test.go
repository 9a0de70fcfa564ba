package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bm(id string, updated int64, tags ...string) Bookmark {
	return Bookmark{ID: id, URL: "https://" + id, Title: id, Tags: tags, UpdatedAt: updated}
}

func TestBookmarksForCollection_AnyMode(t *testing.T) {
	items := []Bookmark{
		bm("b1", 3, "t1"),
		bm("b2", 2, "t2"),
		bm("b3", 1, "t3"),
	}
	c := Collection{TagFilter: TagFilter{Mode: FilterAny, TagIDs: []string{"t1", "t2"}}}

	got := BookmarksForCollection(c, items, SortByUpdated)

	require.Len(t, got, 2)
	// newest first
	assert.Equal(t, "b1", got[0].ID)
	assert.Equal(t, "b2", got[1].ID)
}

func TestBookmarksForCollection_AllMode(t *testing.T) {
	items := []Bookmark{
		bm("b1", 1, "t1", "t2"),
		bm("b2", 2, "t1"),
	}
	c := Collection{TagFilter: TagFilter{Mode: FilterAll, TagIDs: []string{"t1", "t2"}}}

	got := BookmarksForCollection(c, items, SortByTitle)

	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].ID)
}

func TestBookmarksForCollection_EmptyFilterMatchesNothing(t *testing.T) {
	items := []Bookmark{bm("b1", 1, "t1")}
	c := Collection{TagFilter: TagFilter{Mode: FilterAny, TagIDs: []string{}}}

	assert.Empty(t, BookmarksForCollection(c, items, SortByUpdated))
}

func TestCountPerCollection(t *testing.T) {
	items := []Bookmark{bm("b1", 1, "t1"), bm("b2", 1, "t1"), bm("b3", 1, "t2")}
	cols := []Collection{
		{ID: "c1", TagFilter: TagFilter{Mode: FilterAny, TagIDs: []string{"t1"}}},
		{ID: "c2", TagFilter: TagFilter{Mode: FilterAny, TagIDs: []string{"t2"}}},
		{ID: "c3", TagFilter: TagFilter{Mode: FilterAny, TagIDs: []string{}}},
	}

	counts := CountPerCollection(cols, items)

	assert.Equal(t, 2, counts["c1"])
	assert.Equal(t, 1, counts["c2"])
	assert.Equal(t, 0, counts["c3"])
}

func TestFlattenWithDepth(t *testing.T) {
	cols := []Collection{
		{ID: "root2", Name: "zeta", Order: 2},
		{ID: "root1", Name: "alpha", Order: 1},
		{ID: "child", Name: "child", ParentID: "root1"},
		{ID: "grand", Name: "grand", ParentID: "child"},
	}

	flat := FlattenWithDepth(cols)

	require.Len(t, flat, 4)
	assert.Equal(t, "root1", flat[0].Collection.ID)
	assert.Equal(t, 0, flat[0].Depth)
	assert.Equal(t, "child", flat[1].Collection.ID)
	assert.Equal(t, 1, flat[1].Depth)
	assert.Equal(t, "grand", flat[2].Collection.ID)
	assert.Equal(t, 2, flat[2].Depth)
	assert.Equal(t, "root2", flat[3].Collection.ID)
}

func TestWouldCreateCycle(t *testing.T) {
	m := Manifest{Collections: []Collection{
		{ID: "A"},
		{ID: "B", ParentID: "A"},
		{ID: "C", ParentID: "B"},
	}}

	tests := []struct {
		name   string
		id     string
		parent string
		want   bool
	}{
		{"no parent", "A", "", false},
		{"self", "A", "A", true},
		{"close loop", "A", "C", true},
		{"deep legal", "C", "A", false},
		{"sibling legal", "B", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, m.wouldCreateCycle(tc.id, tc.parent))
		})
	}
}

func TestValidateAcyclic(t *testing.T) {
	ok := Manifest{Collections: []Collection{{ID: "A"}, {ID: "B", ParentID: "A"}}}
	assert.NoError(t, ok.validateAcyclic())

	bad := Manifest{Collections: []Collection{{ID: "A", ParentID: "B"}, {ID: "B", ParentID: "A"}}}
	assert.ErrorIs(t, bad.validateAcyclic(), ErrCollectionCycle)
}
