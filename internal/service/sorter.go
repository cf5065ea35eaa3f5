// Package service provides the business logic of the Melodia coordinator.
package service

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/evxf/melodia/internal/domain"
)

// Sorter orders library songs by a sort key. Title comparison is
// locale-aware via a collator built for the configured language.
//
// Sort never mutates its input and is stable for ties, so it is idempotent
// for every key.
type Sorter struct {
	// collators are not safe for concurrent use
	mu       sync.Mutex
	collator *collate.Collator
}

// NewSorter creates a sorter collating titles for the given language code.
// Unparseable codes fall back to Portuguese, the application default.
func NewSorter(languageCode string) *Sorter {
	tag, err := language.Parse(languageCode)
	if err != nil {
		tag = language.Portuguese
	}
	return &Sorter{collator: collate.New(tag)}
}

// Sort returns a new slice ordered by key. Unrecognized keys return the
// input order unchanged (still as a copy).
func (s *Sorter) Sort(songs []domain.Song, key domain.SortKey) []domain.Song {
	out := make([]domain.Song, len(songs))
	copy(out, songs)

	switch key {
	case domain.SortByName:
		s.mu.Lock()
		sort.SliceStable(out, func(i, j int) bool {
			return s.collator.CompareString(out[i].Title, out[j].Title) < 0
		})
		s.mu.Unlock()

	case domain.SortByDateAdded:
		// Most recent first
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DateAdded > out[j].DateAdded
		})

	case domain.SortByDateModified:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DateModified > out[j].DateModified
		})
	}

	return out
}
