package service

import "github.com/douglascorrea/todo-api/internal/store"

const (
	defaultTake = 10
	maxTake     = 100
)

// NewPage builds a clamped pagination window. Negative skip is zeroed, a
// non-positive take falls back to the default and oversized takes are capped.
func NewPage(skip, take int, desc bool) store.Page {
	if skip < 0 {
		skip = 0
	}
	if take <= 0 {
		take = defaultTake
	}
	if take > maxTake {
		take = maxTake
	}
	return store.Page{Skip: skip, Take: take, Desc: desc}
}
