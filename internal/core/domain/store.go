package domain

import "sort"

// AnnotationStore maps document IDs to their state. It is the single source
// of truth while a session is active. It is not synchronised: the owning
// Workspace serialises access.
type AnnotationStore struct {
	docs map[string]*DocumentState
}

// NewAnnotationStore creates an empty store
func NewAnnotationStore() *AnnotationStore {
	return &AnnotationStore{docs: make(map[string]*DocumentState)}
}

// Get returns the state for id, or nil
func (s *AnnotationStore) Get(id string) *DocumentState {
	return s.docs[id]
}

// Upsert stores state under id
func (s *AnnotationStore) Upsert(id string, state *DocumentState) {
	s.docs[id] = state
}

// Delete removes id from the store
func (s *AnnotationStore) Delete(id string) {
	delete(s.docs, id)
}

// Len returns the number of documents held
func (s *AnnotationStore) Len() int {
	return len(s.docs)
}

// IDs returns the document IDs in sorted order
func (s *AnnotationStore) IDs() []string {
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset clears every entry
func (s *AnnotationStore) Reset() {
	s.docs = make(map[string]*DocumentState)
}

// ExportAll returns a deep copy of the whole store
func (s *AnnotationStore) ExportAll() (Snapshot, error) {
	out := make(Snapshot, len(s.docs))
	for id, doc := range s.docs {
		snap, err := doc.Snapshot()
		if err != nil {
			return nil, err
		}
		out[id] = snap
	}
	return out, nil
}

// nextRevision keeps the revision of an unchanged document and otherwise
// moves past the revision being replaced, so ranges resolved against the
// old tree go stale.
func nextRevision(prev, next *DocumentState) uint64 {
	if prev.Original.Equal(next.Original) && prev.Annotated.Equal(next.Annotated) {
		return prev.Revision
	}
	if next.Revision > prev.Revision {
		return next.Revision
	}
	return prev.Revision + 1
}

// ImportAll merges snapshot into the store, overwriting matching IDs.
// Nothing is merged if any entry fails to parse. Returns the imported IDs.
func (s *AnnotationStore) ImportAll(snapshot Snapshot) ([]string, error) {
	parsed := make(map[string]*DocumentState, len(snapshot))
	for id, snap := range snapshot {
		if id == "" {
			return nil, ErrInvalidInput
		}
		doc, err := DocumentFromSnapshot(id, snap)
		if err != nil {
			return nil, err
		}
		if prev := s.docs[id]; prev != nil {
			doc.Revision = nextRevision(prev, doc)
		}
		parsed[id] = doc
	}

	ids := make([]string, 0, len(parsed))
	for id, doc := range parsed {
		s.docs[id] = doc
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
