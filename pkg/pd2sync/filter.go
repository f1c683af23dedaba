package pd2sync

// typeFilter selects events by type. A nil filter allows everything.
type typeFilter struct {
	include map[EventType]struct{}
	exclude map[EventType]struct{}
}

// newTypeFilter returns nil when both lists are empty.
func newTypeFilter(include, exclude []EventType) *typeFilter {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	return &typeFilter{
		include: typeSet(include),
		exclude: typeSet(exclude),
	}
}

func typeSet(types []EventType) map[EventType]struct{} {
	if len(types) == 0 {
		return nil
	}
	set := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

// Allows returns true if the given event type passes the filter.
// If include is non-empty, only types in include are allowed.
// Types in exclude are always rejected (exclude takes precedence).
func (f *typeFilter) Allows(t EventType) bool {
	if f == nil {
		return true
	}
	if len(f.include) > 0 {
		if _, ok := f.include[t]; !ok {
			return false
		}
	}
	_, excluded := f.exclude[t]
	return !excluded
}
