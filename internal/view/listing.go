// Package view holds client-side listing state: a local copy of a
// collection filtered by a search term and cut into fixed-size pages.
package view

import "strings"

// Listing is not safe for concurrent use; each consumer owns its own.
type Listing[T any] struct {
	items    []T
	filtered []T
	term     string
	page     int
	pageSize int
	id       func(T) string
	match    func(item T, term string) bool
}

// NewListing creates an empty listing. match receives the lower-cased,
// trimmed term and is never called for an empty term.
func NewListing[T any](pageSize int, id func(T) string, match func(item T, term string) bool) *Listing[T] {
	if pageSize <= 0 {
		pageSize = 10
	}
	l := &Listing[T]{pageSize: pageSize, id: id, match: match, page: 1}
	l.recompute()
	return l
}

// ContainsFold reports whether any field contains term, ignoring case.
// term must already be lower case.
func ContainsFold(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Reconcile replaces local state with an authoritative read. The page is
// kept when it still exists.
func (l *Listing[T]) Reconcile(items []T) {
	l.items = append([]T(nil), items...)
	l.recompute()
	l.clampPage()
}

// Search sets the term and returns to page 1.
func (l *Listing[T]) Search(term string) {
	l.term = strings.ToLower(strings.TrimSpace(term))
	l.recompute()
	l.page = 1
}

func (l *Listing[T]) Term() string { return l.term }

func (l *Listing[T]) Page() int { return l.page }

func (l *Listing[T]) PageSize() int { return l.pageSize }

// Pages is at least 1 so an empty listing still has a page to show.
func (l *Listing[T]) Pages() int {
	n := (len(l.filtered) + l.pageSize - 1) / l.pageSize
	if n < 1 {
		return 1
	}
	return n
}

// SetPage moves to page n, clamped to the available range.
func (l *Listing[T]) SetPage(n int) {
	l.page = n
	l.clampPage()
}

func (l *Listing[T]) Next() {
	if l.HasNext() {
		l.page++
	}
}

func (l *Listing[T]) Prev() {
	if l.HasPrev() {
		l.page--
	}
}

func (l *Listing[T]) HasNext() bool { return l.page*l.pageSize < len(l.filtered) }

func (l *Listing[T]) HasPrev() bool { return l.page > 1 }

// Filtered returns every item matching the current term.
func (l *Listing[T]) Filtered() []T { return l.filtered }

func (l *Listing[T]) Total() int { return len(l.filtered) }

// Window returns the items of the current page.
func (l *Listing[T]) Window() []T {
	start := (l.page - 1) * l.pageSize
	if start >= len(l.filtered) {
		return []T{}
	}
	end := start + l.pageSize
	if end > len(l.filtered) {
		end = len(l.filtered)
	}
	return l.filtered[start:end]
}

// Get finds an item by ID among all items, filtered or not.
func (l *Listing[T]) Get(id string) (T, bool) {
	for _, it := range l.items {
		if l.id(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Patch applies fn to the item with the given ID. It reports false when the
// item is not present.
func (l *Listing[T]) Patch(id string, fn func(T) T) bool {
	for i, it := range l.items {
		if l.id(it) == id {
			l.items[i] = fn(it)
			l.recompute()
			l.clampPage()
			return true
		}
	}
	return false
}

func (l *Listing[T]) Remove(id string) bool {
	for i, it := range l.items {
		if l.id(it) == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			l.recompute()
			l.clampPage()
			return true
		}
	}
	return false
}

func (l *Listing[T]) recompute() {
	if l.term == "" || l.match == nil {
		l.filtered = append([]T(nil), l.items...)
		return
	}
	l.filtered = l.filtered[:0:0]
	for _, it := range l.items {
		if l.match(it, l.term) {
			l.filtered = append(l.filtered, it)
		}
	}
}

func (l *Listing[T]) clampPage() {
	if l.page < 1 {
		l.page = 1
	}
	if last := l.Pages(); l.page > last {
		l.page = last
	}
}
