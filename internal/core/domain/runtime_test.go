package domain

import (
	"testing"
)

func TestNewRuntimeConfig(t *testing.T) {
	config := NewRuntimeConfig("badger", "memory")

	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if config.RecordBackend != "badger" {
		t.Errorf("expected badger, got %s", config.RecordBackend)
	}
	if config.RecoveryBackend != "memory" {
		t.Errorf("expected memory, got %s", config.RecoveryBackend)
	}
	if !config.AnnotationsEnabled(DefaultAnnotatedSubject) {
		t.Error("expected default subject to be enabled")
	}
	if config.AnnotationsEnabled("Biology") {
		t.Error("expected other subjects to be disabled")
	}
}

func TestRuntimeConfig_SubjectsAreCaseInsensitive(t *testing.T) {
	config := NewRuntimeConfig("redis", "redis")

	if !config.AnnotationsEnabled("  reading comprehension ") {
		t.Error("expected subject match to ignore case and spaces")
	}
}

func TestRuntimeConfig_SetAnnotatedSubjects(t *testing.T) {
	config := NewRuntimeConfig("postgres", "memory")

	config.SetAnnotatedSubjects([]string{"Biology", "", "Reading Comprehension"})

	if !config.AnnotationsEnabled("biology") {
		t.Error("expected biology to be enabled")
	}
	subjects := config.AnnotatedSubjects()
	if len(subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %v", subjects)
	}
	if subjects[0] != "biology" || subjects[1] != "reading comprehension" {
		t.Errorf("unexpected subjects %v", subjects)
	}

	config.SetAnnotatedSubjects(nil)
	if config.AnnotationsEnabled(DefaultAnnotatedSubject) {
		t.Error("expected all subjects disabled")
	}
}
