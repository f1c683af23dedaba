package main

import (
	"fmt"
	"strings"

	"github.com/pd2trade/pd2sync/pkg/pd2sync"
	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// ValidEventTypeNames returns a sorted list of valid event type names.
// Delegates to event.TypeNames() as the single source of truth.
func ValidEventTypeNames() []string {
	return event.TypeNames()
}

// NormalizeEventTypes converts CLI string values to a pd2sync.EventType slice.
// It handles case-insensitivity, whitespace trimming, underscore spelling
// and duplicate removal.
func NormalizeEventTypes(values []string) ([]pd2sync.EventType, error) {
	if len(values) == 0 {
		return nil, nil
	}

	result := make([]pd2sync.EventType, 0, len(values))
	seen := make(map[pd2sync.EventType]struct{})

	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			return nil, fmt.Errorf("empty event type provided (input: %q); valid types: %s", raw, strings.Join(ValidEventTypeNames(), ", "))
		}

		t, ok := event.ParseType(raw)
		if !ok {
			return nil, fmt.Errorf("unknown event type %q (valid: %s)", raw, strings.Join(ValidEventTypeNames(), ", "))
		}

		if _, dup := seen[t]; dup {
			continue // ignore duplicates silently
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}

	return result, nil
}

// RejectOverlap returns an error if any event type is in both includes and excludes.
func RejectOverlap(includes, excludes []pd2sync.EventType) error {
	ex := make(map[pd2sync.EventType]struct{}, len(excludes))
	for _, t := range excludes {
		ex[t] = struct{}{}
	}
	for _, t := range includes {
		if _, ok := ex[t]; ok {
			return fmt.Errorf("event type %q cannot be both included and excluded", t)
		}
	}
	return nil
}

// typeFlags normalizes an include/exclude flag pair.
func typeFlags(include, exclude []string) (includes, excludes []pd2sync.EventType, err error) {
	includes, err = NormalizeEventTypes(include)
	if err != nil {
		return nil, nil, err
	}
	excludes, err = NormalizeEventTypes(exclude)
	if err != nil {
		return nil, nil, err
	}
	if err := RejectOverlap(includes, excludes); err != nil {
		return nil, nil, err
	}
	return includes, excludes, nil
}
