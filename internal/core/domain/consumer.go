package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ConsumerKey identifies an exam item displaying a passage
type ConsumerKey struct {
	Subject   string `json:"subject" validate:"required"`
	TestIndex int    `json:"test_index" validate:"gte=0"`
	ItemIndex int    `json:"item_index" validate:"gte=0"`
}

// String renders the key as "<subject>-<test>-<item>"
func (k ConsumerKey) String() string {
	return fmt.Sprintf("%s-%d-%d", k.Subject, k.TestIndex, k.ItemIndex)
}

// ParseConsumerKey is the inverse of ConsumerKey.String.
// The subject may itself contain dashes.
func ParseConsumerKey(s string) (ConsumerKey, error) {
	last := strings.LastIndex(s, "-")
	if last <= 0 {
		return ConsumerKey{}, fmt.Errorf("%w: consumer key %q", ErrInvalidInput, s)
	}
	mid := strings.LastIndex(s[:last], "-")
	if mid <= 0 {
		return ConsumerKey{}, fmt.Errorf("%w: consumer key %q", ErrInvalidInput, s)
	}
	testIndex, err := strconv.Atoi(s[mid+1 : last])
	if err != nil || testIndex < 0 {
		return ConsumerKey{}, fmt.Errorf("%w: consumer key %q", ErrInvalidInput, s)
	}
	itemIndex, err := strconv.Atoi(s[last+1:])
	if err != nil || itemIndex < 0 {
		return ConsumerKey{}, fmt.Errorf("%w: consumer key %q", ErrInvalidInput, s)
	}
	return ConsumerKey{Subject: s[:mid], TestIndex: testIndex, ItemIndex: itemIndex}, nil
}

// ConsumerRegistry maps consumers to the document they display.
// Many consumers may share one document; a binding never changes once made.
type ConsumerRegistry struct {
	bindings map[ConsumerKey]string
}

// NewConsumerRegistry creates an empty registry
func NewConsumerRegistry() *ConsumerRegistry {
	return &ConsumerRegistry{bindings: make(map[ConsumerKey]string)}
}

// Bind maps key to documentID. Re-binding to the same document is a no-op;
// re-binding to a different document is refused with ErrAlreadyBound.
func (r *ConsumerRegistry) Bind(key ConsumerKey, documentID string) error {
	if err := r.CheckBind(key, documentID); err != nil {
		return err
	}
	r.bindings[key] = documentID
	return nil
}

// CheckBind reports whether binding key to documentID would be accepted
func (r *ConsumerRegistry) CheckBind(key ConsumerKey, documentID string) error {
	if existing, ok := r.bindings[key]; ok && existing != documentID {
		return fmt.Errorf("%w: %s -> %s", ErrAlreadyBound, key, existing)
	}
	return nil
}

// Resolve returns the document bound to key
func (r *ConsumerRegistry) Resolve(key ConsumerKey) (string, bool) {
	id, ok := r.bindings[key]
	return id, ok
}

// Consumers lists the keys bound to documentID, sorted
func (r *ConsumerRegistry) Consumers(documentID string) []string {
	var keys []string
	for k, id := range r.bindings {
		if id == documentID {
			keys = append(keys, k.String())
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of bindings
func (r *ConsumerRegistry) Len() int {
	return len(r.bindings)
}

// Reset drops every binding
func (r *ConsumerRegistry) Reset() {
	r.bindings = make(map[ConsumerKey]string)
}

// Export returns the bindings keyed by rendered consumer key
func (r *ConsumerRegistry) Export() map[string]string {
	out := make(map[string]string, len(r.bindings))
	for k, id := range r.bindings {
		out[k.String()] = id
	}
	return out
}

// RegistryFromExport rebuilds a registry from Export output
func RegistryFromExport(bindings map[string]string) (*ConsumerRegistry, error) {
	r := NewConsumerRegistry()
	for s, id := range bindings {
		key, err := ParseConsumerKey(s)
		if err != nil {
			return nil, err
		}
		r.bindings[key] = id
	}
	return r, nil
}
