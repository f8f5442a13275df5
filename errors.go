package smmap

import "errors"

// Error kinds surfaced by this package. Callers should compare against
// these with errors.Is; most operations wrap one of these with additional
// context via fmt.Errorf's %w verb.
var (
	// ErrRegionCollectionError is returned when the LRU collector was asked
	// to make room for a specific amount under the memory budget and found
	// no unused region to evict at all.
	ErrRegionCollectionError = errors.New("smmap: could not collect enough unused regions to meet budget")

	// ErrMapFailed is returned when the OS refused to create a mapping, or
	// when the manager's handle budget is already exhausted (treated as
	// equivalent to the OS refusing the mapping).
	ErrMapFailed = errors.New("smmap: memory mapping failed")

	// ErrInvalidCursor is returned when a SlidingBuffer is constructed from
	// a cursor that is not associated with a file, or whose requested
	// offset lies at or past the end of the file.
	ErrInvalidCursor = errors.New("smmap: cursor is invalid")

	// ErrWrongKeyKind is returned by Cursor.Path when the underlying
	// FileKey is fd-keyed, and by Cursor.FD when it is path-keyed.
	ErrWrongKeyKind = errors.New("smmap: file key is not of the requested kind")

	// ErrNotEntered is returned when a SlidingBuffer is accessed outside of
	// its Enter/Exit scope.
	ErrNotEntered = errors.New("smmap: sliding buffer accessed outside of an entered scope")
)
