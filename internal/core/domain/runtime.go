package domain

import (
	"sort"
	"strings"
	"sync"
)

// DefaultAnnotatedSubject is the content type with reading passages
const DefaultAnnotatedSubject = "Reading Comprehension"

// RuntimeConfig tracks which backends are in use and which subjects have the
// annotation feature enabled. Subjects can be changed at runtime.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	RecordBackend   string // "badger", "redis" or "postgres"
	RecoveryBackend string // "redis" or "memory"

	annotatedSubjects map[string]bool
}

// NewRuntimeConfig creates a new RuntimeConfig with the default subject enabled
func NewRuntimeConfig(recordBackend, recoveryBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		RecordBackend:     recordBackend,
		RecoveryBackend:   recoveryBackend,
		annotatedSubjects: map[string]bool{normaliseSubject(DefaultAnnotatedSubject): true},
	}
}

// SetAnnotatedSubjects replaces the set of subjects with annotations enabled
func (c *RuntimeConfig) SetAnnotatedSubjects(subjects []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.annotatedSubjects = make(map[string]bool, len(subjects))
	for _, s := range subjects {
		if s = normaliseSubject(s); s != "" {
			c.annotatedSubjects[s] = true
		}
	}
}

// AnnotatedSubjects returns the enabled subjects, sorted
func (c *RuntimeConfig) AnnotatedSubjects() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.annotatedSubjects))
	for s := range c.annotatedSubjects {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// AnnotationsEnabled reports whether selections are intercepted for subject
func (c *RuntimeConfig) AnnotationsEnabled(subject string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.annotatedSubjects[normaliseSubject(subject)]
}

func normaliseSubject(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
