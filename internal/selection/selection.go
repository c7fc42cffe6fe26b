// Package selection picks the record a run operates on: the most recent media
// object of a timeline, or the user at a given search result index.
package selection

import (
	"errors"
	"fmt"

	"channelgrab/internal/catalog"
)

// ErrEmptyCatalog is returned when a timeline has no media records.
var ErrEmptyCatalog = errors.New("no media found on home page")

// ErrIndexOutOfRange matches every *IndexOutOfRangeError.
var ErrIndexOutOfRange = errors.New("user index out of range")

// IndexOutOfRangeError reports a search result index outside the result list.
type IndexOutOfRangeError struct {
	Index  int
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	if e.Length == 0 {
		return fmt.Sprintf("user index out of range: %d (no users found)", e.Index)
	}
	return fmt.Sprintf("user index out of range: %d (have %d results)", e.Index, e.Length)
}

// Is lets errors.Is match ErrIndexOutOfRange.
func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// Latest returns the record with the greatest CreateTime. Missing timestamps
// count as 0 and ties go to the earliest record in the list.
func Latest(records []catalog.MediaRecord) (catalog.MediaRecord, error) {
	if len(records) == 0 {
		return catalog.MediaRecord{}, ErrEmptyCatalog
	}
	best := 0
	for i := 1; i < len(records); i++ {
		if records[i].CreateTime > records[best].CreateTime {
			best = i
		}
	}
	return records[best], nil
}

// ByIndex returns users[index].
func ByIndex(users []catalog.UserRecord, index int) (catalog.UserRecord, error) {
	if index < 0 || index >= len(users) {
		return catalog.UserRecord{}, &IndexOutOfRangeError{Index: index, Length: len(users)}
	}
	return users[index], nil
}
