package domain

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestConsumerKey_StringAndParse(t *testing.T) {
	tests := []struct {
		key  ConsumerKey
		want string
	}{
		{ConsumerKey{Subject: "Reading Comprehension", TestIndex: 0, ItemIndex: 5}, "Reading Comprehension-0-5"},
		{ConsumerKey{Subject: "Quant-Reasoning", TestIndex: 2, ItemIndex: 11}, "Quant-Reasoning-2-11"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			parsed, err := ParseConsumerKey(tt.want)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed != tt.key {
				t.Errorf("expected %+v, got %+v", tt.key, parsed)
			}
		})
	}
}

func TestParseConsumerKey_Invalid(t *testing.T) {
	for _, s := range []string{"", "nodashes", "-1-2", "subject-x-1", "subject-1-y", "subject--1"} {
		if _, err := ParseConsumerKey(s); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseConsumerKey(%q): expected ErrInvalidInput, got %v", s, err)
		}
	}
}

func TestConsumerRegistry_ManyToOne(t *testing.T) {
	reg := NewConsumerRegistry()
	q5 := ConsumerKey{Subject: "Reading Comprehension", ItemIndex: 5}
	q6 := ConsumerKey{Subject: "Reading Comprehension", ItemIndex: 6}

	if err := reg.Bind(q5, "pt1,passage1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Bind(q6, "pt1,passage1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Idempotent.
	if err := reg.Bind(q5, "pt1,passage1"); err != nil {
		t.Fatalf("unexpected error on re-bind: %v", err)
	}

	id, ok := reg.Resolve(q6)
	if !ok || id != "pt1,passage1" {
		t.Errorf("expected pt1,passage1, got %q (%v)", id, ok)
	}

	consumers := reg.Consumers("pt1,passage1")
	want := []string{"Reading Comprehension-0-5", "Reading Comprehension-0-6"}
	if !reflect.DeepEqual(consumers, want) {
		t.Errorf("expected %v, got %v", want, consumers)
	}
}

func TestConsumerRegistry_BindingIsStable(t *testing.T) {
	reg := NewConsumerRegistry()
	key := ConsumerKey{Subject: "Reading Comprehension", ItemIndex: 1}
	_ = reg.Bind(key, "a")

	err := reg.Bind(key, "b")
	if !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("expected ErrAlreadyBound, got %v", err)
	}
	if id, _ := reg.Resolve(key); id != "a" {
		t.Errorf("expected binding to stay on a, got %s", id)
	}

	reg.Reset()
	if _, ok := reg.Resolve(key); ok {
		t.Error("expected no binding after reset")
	}
}

func TestWorkspace_ResetAndDirty(t *testing.T) {
	now := time.Unix(100, 0)
	ws := NewWorkspace("s1", now)
	ws.Lock()
	defer ws.Unlock()

	ws.Store.Upsert("d", newTestDocument(t, "d", twoParagraphs))
	_ = ws.Registry.Bind(ConsumerKey{Subject: "x"}, "d")
	ws.SetActiveDocument("d")
	ws.Touch(now.Add(time.Second), true)

	if !ws.TakeDirty() {
		t.Error("expected dirty workspace")
	}
	if ws.TakeDirty() {
		t.Error("expected dirty flag to be consumed")
	}

	ws.Reset(now.Add(2 * time.Second))
	if ws.Store.Len() != 0 || ws.Registry.Len() != 0 || ws.ActiveDocument() != "" {
		t.Error("expected reset workspace")
	}
	if !ws.TouchedAt().Equal(now.Add(2 * time.Second)) {
		t.Errorf("unexpected touched at %v", ws.TouchedAt())
	}
}

func TestWorkspace_RecoveryRoundTrip(t *testing.T) {
	now := time.UnixMilli(5000)
	ws := NewWorkspace("s1", now)
	ws.SetSubject(DefaultAnnotatedSubject)
	ws.Store.Upsert("d", newTestDocument(t, "d", twoParagraphs))
	_ = ws.Registry.Bind(ConsumerKey{Subject: "Reading-Comprehension", TestIndex: 1, ItemIndex: 2}, "d")
	ws.SetActiveDocument("d")

	rs, err := ws.RecoverySnapshot(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.SavedAt != 5000 || rs.SessionID != "s1" {
		t.Errorf("unexpected snapshot header %+v", rs)
	}

	restored := NewWorkspace("s1", now)
	if err := restored.Recover(rs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.Subject() != DefaultAnnotatedSubject || restored.ActiveDocument() != "d" {
		t.Errorf("expected subject and active document restored, got %q %q", restored.Subject(), restored.ActiveDocument())
	}
	id, ok := restored.Registry.Resolve(ConsumerKey{Subject: "Reading-Comprehension", TestIndex: 1, ItemIndex: 2})
	if !ok || id != "d" {
		t.Errorf("expected binding restored, got %q", id)
	}
	if restored.Store.Get("d") == nil {
		t.Error("expected document restored")
	}

	other := NewWorkspace("s2", now)
	if err := other.Recover(rs); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for foreign snapshot, got %v", err)
	}
}

func TestCommitTask(t *testing.T) {
	task := NewCommitTask()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := task.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	task.Finish(CommitResult{Written: []string{"a"}}, nil)
	task.Finish(CommitResult{Failed: []string{"b"}}, nil)

	select {
	case <-task.Done():
	default:
		t.Fatal("expected task to be done")
	}
	res, err := task.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK() || len(res.Written) != 1 {
		t.Errorf("expected first result to win, got %+v", res)
	}
}
