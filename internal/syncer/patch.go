package syncer

import (
	"slices"

	"gorm.io/datatypes"
)

// changes collects the columns of one row whose mapped value differs from the
// local snapshot.
type changes map[string]any

func setField[V comparable](c changes, column string, current, next V) {
	if current != next {
		c[column] = next
	}
}

// setList compares ordered lists by value; a reordering is a change.
func setList(c changes, column string, current, next []string) {
	if !slices.Equal(current, next) {
		c[column] = datatypes.JSONSlice[string](next)
	}
}
