package domain

import (
	"fmt"
	"sync"
	"time"
)

// Workspace is the annotation context of one test-taking session: its
// annotation store, its consumer registry and the active document.
//
// All mutations of a workspace happen with its lock held, which gives the
// single-reader ordering guarantee: within a document, mutations apply in
// request order. Methods other than Lock/Unlock expect the lock to be held.
type Workspace struct {
	mu sync.Mutex

	SessionID string
	CreatedAt time.Time
	Store     *AnnotationStore
	Registry  *ConsumerRegistry

	subject        string
	activeDocument string
	dirty          bool
	touchedAt      time.Time
}

// NewWorkspace creates an empty workspace for a session
func NewWorkspace(sessionID string, now time.Time) *Workspace {
	return &Workspace{
		SessionID: sessionID,
		CreatedAt: now,
		Store:     NewAnnotationStore(),
		Registry:  NewConsumerRegistry(),
		touchedAt: now,
	}
}

// Lock acquires the workspace lock
func (w *Workspace) Lock() { w.mu.Lock() }

// Unlock releases the workspace lock
func (w *Workspace) Unlock() { w.mu.Unlock() }

// Subject returns the content type currently displayed
func (w *Workspace) Subject() string { return w.subject }

// SetSubject records the content type currently displayed
func (w *Workspace) SetSubject(subject string) { w.subject = subject }

// ActiveDocument returns the document currently displayed
func (w *Workspace) ActiveDocument() string { return w.activeDocument }

// SetActiveDocument records the document currently displayed
func (w *Workspace) SetActiveDocument(id string) { w.activeDocument = id }

// Touch marks the workspace as used at now and, if changed, as dirty
func (w *Workspace) Touch(now time.Time, changed bool) {
	w.touchedAt = now
	if changed {
		w.dirty = true
	}
}

// TouchedAt returns the last time the workspace was used
func (w *Workspace) TouchedAt() time.Time { return w.touchedAt }

// Dirty reports whether the workspace changed since the last mirror
func (w *Workspace) Dirty() bool { return w.dirty }

// MarkDirty flags the workspace as changed without touching it
func (w *Workspace) MarkDirty() { w.dirty = true }

// TakeDirty reports whether the workspace changed since the last call
func (w *Workspace) TakeDirty() bool {
	dirty := w.dirty
	w.dirty = false
	return dirty
}

// Reset clears all annotation state ("start new test")
func (w *Workspace) Reset(now time.Time) {
	w.Store.Reset()
	w.Registry.Reset()
	w.activeDocument = ""
	w.dirty = false
	w.touchedAt = now
}

// RecoverySnapshot captures the workspace for the recovery mirror
func (w *Workspace) RecoverySnapshot(now time.Time) (*RecoverySnapshot, error) {
	docs, err := w.Store.ExportAll()
	if err != nil {
		return nil, err
	}
	return &RecoverySnapshot{
		SessionID:      w.SessionID,
		Subject:        w.subject,
		ActiveDocument: w.activeDocument,
		Consumers:      w.Registry.Export(),
		Documents:      docs,
		SavedAt:        now.UnixMilli(),
	}, nil
}

// Recover replaces the workspace content with a recovery snapshot.
// The workspace is left unchanged on error.
func (w *Workspace) Recover(rs *RecoverySnapshot) error {
	if rs.SessionID != "" && rs.SessionID != w.SessionID {
		return fmt.Errorf("%w: snapshot of session %s", ErrInvalidInput, rs.SessionID)
	}
	registry, err := RegistryFromExport(rs.Consumers)
	if err != nil {
		return err
	}
	store := NewAnnotationStore()
	if _, err := store.ImportAll(rs.Documents); err != nil {
		return err
	}
	w.Store = store
	w.Registry = registry
	w.subject = rs.Subject
	w.activeDocument = rs.ActiveDocument
	w.dirty = false
	return nil
}
