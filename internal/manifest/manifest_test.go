package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_FullDocument(t *testing.T) {
	data := []byte(`{
		"version": 7,
		"chain_head": "abc",
		"items": [{"id":"b1","url":"https://example.com","title":"Example","tags":["t1"],"created_at":1,"updated_at":2}],
		"tags": [{"id":"t1","name":"work"}],
		"collections": [{"id":"c1","name":"Inbox","tagFilter":{"mode":"any","tagIds":["t1"]},"created_at":1,"updated_at":1}]
	}`)

	m := Decode(data, 99)

	assert.Equal(t, int64(7), m.Version)
	assert.Equal(t, "abc", m.ChainHead)
	require.Len(t, m.Items, 1)
	assert.Equal(t, "b1", m.Items[0].ID)
	require.Len(t, m.Tags, 1)
	require.Len(t, m.Collections, 1)
	assert.Equal(t, FilterAny, m.Collections[0].TagFilter.Mode)
}

func TestDecode_MissingSetsCoercedToEmpty(t *testing.T) {
	m := Decode([]byte(`{"version": 3}`), 3)

	assert.NotNil(t, m.Items)
	assert.NotNil(t, m.Tags)
	assert.NotNil(t, m.Collections)
	assert.Empty(t, m.Items)
	assert.Empty(t, m.Tags)
}

func TestDecode_MalformedFieldsDegradeIndependently(t *testing.T) {
	// items is not an array; tags is fine
	data := []byte(`{"version": 2, "items": "garbage", "tags": [{"id":"t1","name":"work"}]}`)
	m := Decode(data, 2)

	assert.Empty(t, m.Items)
	require.Len(t, m.Tags, 1)
	assert.Equal(t, "work", m.Tags[0].Name)
}

func TestDecode_UnparseableYieldsEmptyAtServerVersion(t *testing.T) {
	m := Decode([]byte(`not json at all`), 5)

	assert.Equal(t, int64(5), m.Version)
	assert.Empty(t, m.Items)
	assert.Empty(t, m.Tags)
}

func TestDecode_ZeroVersionAdoptsServerVersion(t *testing.T) {
	m := Decode([]byte(`{"items":[],"tags":[]}`), 4)
	assert.Equal(t, int64(4), m.Version)
}

func TestEncode_Deterministic(t *testing.T) {
	a := Manifest{
		Version: 1,
		Items: []Bookmark{
			{ID: "b2", URL: "https://b", Title: "B", Tags: []string{"t2", "t1"}},
			{ID: "b1", URL: "https://a", Title: "A", Tags: []string{"t1"}},
		},
		Tags: []Tag{{ID: "t2", Name: "two"}, {ID: "t1", Name: "one"}},
	}
	b := Manifest{
		Version: 1,
		Items: []Bookmark{
			{ID: "b1", URL: "https://a", Title: "A", Tags: []string{"t1"}},
			{ID: "b2", URL: "https://b", Title: "B", Tags: []string{"t1", "t2"}},
		},
		Tags: []Tag{{ID: "t1", Name: "one"}, {ID: "t2", Name: "two"}},
	}

	ea, err := Encode(a)
	require.NoError(t, err)
	eb, err := Encode(b)
	require.NoError(t, err)
	assert.Equal(t, ea, eb)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	m := Manifest{
		Version:   9,
		ChainHead: "head",
		Items: []Bookmark{{
			ID: "b1", URL: "https://example.com", Title: "Example",
			Note: "n", Tags: []string{"t1"}, Pinned: true,
			CreatedAt: 100, UpdatedAt: 200,
		}},
		Tags: []Tag{{ID: "t1", Name: "work", Hidden: true}},
		Collections: []Collection{{
			ID: "c1", Name: "Inbox", ParentID: "",
			TagFilter: TagFilter{Mode: FilterAll, TagIDs: []string{"t1"}},
			CreatedAt: 100, UpdatedAt: 100,
		}},
	}

	data, err := Encode(m)
	require.NoError(t, err)

	got := Decode(data, m.Version)
	assert.True(t, Equal(m, got))
	assert.Equal(t, m.Version, got.Version)
}

func TestEqual_IgnoresVersion(t *testing.T) {
	a := Manifest{Version: 1, Tags: []Tag{{ID: "t1", Name: "work"}}}
	b := Manifest{Version: 8, Tags: []Tag{{ID: "t1", Name: "work"}}}

	assert.True(t, Equal(a, b))

	b.Tags[0].Name = "play"
	assert.False(t, Equal(a, b))
}

func TestClone_Independent(t *testing.T) {
	m := Manifest{
		Items: []Bookmark{{ID: "b1", Tags: []string{"t1"}}},
		Tags:  []Tag{{ID: "t1", Name: "work"}},
	}

	c := m.Clone()
	c.Items[0].Tags[0] = "changed"
	c.Tags[0].Name = "changed"

	assert.Equal(t, "t1", m.Items[0].Tags[0])
	assert.Equal(t, "work", m.Tags[0].Name)
}
