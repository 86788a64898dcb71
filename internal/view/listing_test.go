package view

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   string
	Name string
	Tags []string
}

func rowMatch(r row, term string) bool {
	return ContainsFold(term, append([]string{r.Name}, r.Tags...)...)
}

func newRows(n int) []row {
	words := []string{"Cafe", "Library", "Hub", "Desk", "Loft", "Corner"}
	tags := []string{"wifi", "toilets", "quietEnvironment", "powerSocket"}
	rng := rand.New(rand.NewSource(int64(n)))
	out := make([]row, n)
	for i := range out {
		out[i] = row{
			ID:   fmt.Sprintf("r%d", i),
			Name: words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))],
			Tags: []string{tags[rng.Intn(len(tags))]},
		}
	}
	return out
}

func newListing(items []row, size int) *Listing[row] {
	l := NewListing(size, func(r row) string { return r.ID }, rowMatch)
	l.Reconcile(items)
	return l
}

func TestSearch_FilteredIsMatchingSubset(t *testing.T) {
	items := newRows(57)
	for _, term := range []string{"", "cafe", "HUB", "wifi", "quiet", "zzz", " loft "} {
		l := newListing(items, 6)
		l.SetPage(3)
		l.Search(term)

		assert.Equal(t, 1, l.Page(), "search resets to first page")
		norm := strings.ToLower(strings.TrimSpace(term))
		for _, it := range l.Filtered() {
			if norm != "" {
				assert.True(t, rowMatch(it, norm), "term %q item %+v", term, it)
			}
			_, ok := l.Get(it.ID)
			assert.True(t, ok)
		}
		assert.LessOrEqual(t, l.Total(), len(items))
	}
}

func TestWindows_PartitionFilteredSet(t *testing.T) {
	for _, n := range []int{0, 1, 5, 6, 7, 12, 13, 100} {
		for _, size := range []int{6, 10} {
			l := newListing(newRows(n), size)
			l.Search("c")

			var seen []string
			l.SetPage(1)
			for {
				for _, it := range l.Window() {
					seen = append(seen, it.ID)
				}
				if !l.HasNext() {
					break
				}
				l.Next()
			}

			want := make([]string, 0, l.Total())
			for _, it := range l.Filtered() {
				want = append(want, it.ID)
			}
			assert.Equal(t, want, append([]string{}, seen...), "n=%d size=%d", n, size)
		}
	}
}

func TestPagination_Bounds(t *testing.T) {
	l := newListing(newRows(13), 6)

	assert.Equal(t, 3, l.Pages())
	assert.False(t, l.HasPrev())
	l.SetPage(3)
	assert.False(t, l.HasNext())
	assert.Len(t, l.Window(), 1)
	l.Next()
	assert.Equal(t, 3, l.Page())

	l.SetPage(99)
	assert.Equal(t, 3, l.Page())
	l.SetPage(-1)
	assert.Equal(t, 1, l.Page())
	l.Prev()
	assert.Equal(t, 1, l.Page())

	empty := newListing(nil, 10)
	assert.Equal(t, 1, empty.Pages())
	assert.Empty(t, empty.Window())
	assert.False(t, empty.HasNext())
}

func TestPatchAndRemove(t *testing.T) {
	l := newListing([]row{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}, 6)
	l.Search("alpha")
	require.Len(t, l.Filtered(), 1)

	ok := l.Patch("b", func(r row) row { r.Name = "Alphabet"; return r })
	assert.True(t, ok)
	assert.Len(t, l.Filtered(), 2)

	assert.True(t, l.Remove("a"))
	assert.False(t, l.Remove("a"))
	assert.False(t, l.Patch("zz", func(r row) row { return r }))
	require.Len(t, l.Filtered(), 1)
	assert.Equal(t, "b", l.Filtered()[0].ID)
}

func TestRemove_ClampsPage(t *testing.T) {
	l := newListing(newRows(7), 6)
	l.SetPage(2)
	l.Remove(l.Window()[0].ID)
	assert.Equal(t, 1, l.Page())
}

func TestReconcile_DoesNotAliasInput(t *testing.T) {
	items := []row{{ID: "a", Name: "Alpha"}}
	l := newListing(items, 6)
	items[0].Name = "changed"

	got, _ := l.Get("a")
	assert.Equal(t, "Alpha", got.Name)
}
