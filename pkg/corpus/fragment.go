package corpus

import "time"

// Fragment is one retrievable chunk of source documentation. The URL is its
// stable identity key: deduplication, explored-context tracking and citation
// mapping all key on it.
type Fragment struct {
	URL         string            `json:"url"`
	Title       string            `json:"title,omitempty"`
	Content     string            `json:"content"`
	SourceType  string            `json:"source_type"`
	LastUpdated time.Time         `json:"last_updated,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Snapshot is an immutable view of the corpus at one point in time. Readers
// share it freely; a refresh produces a new Snapshot and never mutates an
// existing one.
type Snapshot struct {
	fragments []*Fragment
	byURL     map[string]*Fragment
	takenAt   time.Time
}

// NewSnapshot builds a snapshot from a fragment list. Later duplicates of a
// URL are dropped.
func NewSnapshot(fragments []*Fragment) *Snapshot {
	byURL := make(map[string]*Fragment, len(fragments))
	ordered := make([]*Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f.URL != "" {
			if _, seen := byURL[f.URL]; seen {
				continue
			}
			byURL[f.URL] = f
		}
		ordered = append(ordered, f)
	}
	return &Snapshot{
		fragments: ordered,
		byURL:     byURL,
		takenAt:   time.Now(),
	}
}

// Fragments returns all fragments in corpus order. Callers must not mutate
// the returned slice.
func (s *Snapshot) Fragments() []*Fragment {
	return s.fragments
}

// ByURL returns the fragment with the given URL, or nil.
func (s *Snapshot) ByURL(url string) *Fragment {
	return s.byURL[url]
}

// Len returns the number of fragments.
func (s *Snapshot) Len() int {
	return len(s.fragments)
}

// TakenAt returns when the snapshot was built.
func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}
