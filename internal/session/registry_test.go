package session

import (
	"errors"
	"testing"
)

func nopFactory(ctx *Context) Handler {
	h := NewBaseHandler(ctx)
	return &h
}

// TestRegisterDuplicate tests that one item type gets one factory
func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("test:a", nopFactory); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}
	err := r.Register("test:a", nopFactory)
	if !errors.Is(err, ErrDuplicateRegistration) {
		t.Errorf("Expected ErrDuplicateRegistration, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 registration, got %d", r.Len())
	}
}

// TestRegisterInvalid tests rejected registrations
func TestRegisterInvalid(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name     string
		itemType string
		factory  Factory
	}{
		{"empty type", "", nopFactory},
		{"nil factory", "test:a", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Register(tt.itemType, tt.factory); !errors.Is(err, ErrInvalidRegistration) {
				t.Errorf("Expected ErrInvalidRegistration, got %v", err)
			}
		})
	}
}

// TestRegistryClear tests lookup, listing and reset
func TestRegistryClear(t *testing.T) {
	r := NewRegistry()
	r.Register("test:b", nopFactory)
	r.Register("test:a", nopFactory)

	if _, ok := r.Lookup("test:a"); !ok {
		t.Error("Expected test:a to be registered")
	}
	if _, ok := r.Lookup("test:c"); ok {
		t.Error("Unexpected factory for test:c")
	}
	types := r.ItemTypes()
	if len(types) != 2 || types[0] != "test:a" || types[1] != "test:b" {
		t.Errorf("Expected sorted item types, got %v", types)
	}

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", r.Len())
	}
	if err := r.Register("test:a", nopFactory); err != nil {
		t.Errorf("Expected re-registration after Clear, got %v", err)
	}
}
