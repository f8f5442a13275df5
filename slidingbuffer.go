package smmap

import (
	"fmt"
	"runtime"
)

// SlidingBuffer is a byte/slice view built on top of a Cursor: it presents
// a file, or a sub-range of it, as a contiguous, index-and-slice
// addressable sequence, re-mapping windows as needed and hiding the fact
// that there are mapped windows underneath at all.
//
// SlidingBuffer is a scoped resource: call Enter before reading from it
// and Exit when done. Enter/Exit nest, so a SlidingBuffer passed through
// several layers of helper functions can be entered more than once; the
// underlying region is only released when the last Exit brings the
// nesting counter back to zero.
type SlidingBuffer struct {
	cursor  *Cursor
	offset  int64
	size    int64
	entered int
}

// NewSlidingBuffer builds a buffer over cursor starting at offset, with a
// logical length of size bytes (clamped to the file's actual remaining
// size). Pass a size larger than the file, or <= 0, to mean "the rest of
// the file from offset". It immediately maps the first window. It fails
// with ErrInvalidCursor if cursor is nil or not associated, or if offset
// is at or past the end of the file; an error from mapping the first
// window is returned as is.
func NewSlidingBuffer(cursor *Cursor, offset, size int64) (*SlidingBuffer, error) {
	if cursor == nil || !cursor.IsAssociated() {
		return nil, fmt.Errorf("%w: cursor is nil or not associated with a file", ErrInvalidCursor)
	}

	reqSize := size
	if reqSize <= 0 {
		reqSize = cursor.FileSize() - offset
	}

	if _, err := cursor.UseRegion(offset, reqSize, 0); err != nil {
		return nil, err
	}
	if !cursor.IsValid() {
		return nil, fmt.Errorf("%w: offset %d is at or past the end of a %d byte file", ErrInvalidCursor, offset, cursor.FileSize())
	}

	effective := size
	if effective <= 0 || offset+effective > cursor.FileSize() {
		effective = cursor.FileSize() - offset
	}

	b := &SlidingBuffer{cursor: cursor, offset: offset, size: effective}
	runtime.SetFinalizer(b, (*SlidingBuffer).finalize)
	return b, nil
}

// NewFullSlidingBuffer builds a buffer over the entirety of cursor's file.
func NewFullSlidingBuffer(cursor *Cursor) (*SlidingBuffer, error) {
	return NewSlidingBuffer(cursor, 0, 0)
}

func (b *SlidingBuffer) finalize() {
	if b.entered != 0 {
		logger.WithField("entered", b.entered).Warn("smmap: sliding buffer garbage collected while still entered")
	}
	b.releaseRegion()
}

// Enter marks the buffer as in use; Get/Slice only work between a
// matching Enter/Exit pair.
func (b *SlidingBuffer) Enter() *SlidingBuffer {
	b.entered++
	return b
}

// Exit undoes one Enter. Once the nesting count reaches zero, the
// cursor's current region is released and further Get/Slice calls fail
// with ErrNotEntered until Enter is called again.
func (b *SlidingBuffer) Exit() {
	if b.entered > 0 {
		b.entered--
	}
	if b.entered == 0 {
		b.releaseRegion()
	}
}

func (b *SlidingBuffer) releaseRegion() {
	if b.cursor != nil {
		b.cursor.UnuseRegion()
	}
}

// Close releases the cursor's current region immediately regardless of
// the nesting count, logging a warning if it was still entered, and resets
// the count to zero, so Get/Slice fail with ErrNotEntered until Enter is
// called again. The buffer keeps its cursor.
func (b *SlidingBuffer) Close() {
	if b.entered != 0 {
		logger.WithField("entered", b.entered).Warn("smmap: sliding buffer closed while still entered")
	}
	b.releaseRegion()
	b.entered = 0
	runtime.SetFinalizer(b, nil)
}

// Len returns the buffer's logical length in bytes.
func (b *SlidingBuffer) Len() int64 { return b.size }

// Cursor returns the cursor backing this buffer.
func (b *SlidingBuffer) Cursor() *Cursor { return b.cursor }

// Get returns the single byte at index i. Negative i counts from the end,
// so Get(-1) is the buffer's last byte.
func (b *SlidingBuffer) Get(i int64) (byte, error) {
	if b.entered <= 0 {
		return 0, ErrNotEntered
	}
	if i < 0 {
		i += b.size
	}
	if i < 0 || i >= b.size {
		return 0, fmt.Errorf("smmap: index %d out of range for length %d", i, b.size)
	}

	abs := b.offset + i
	if !b.cursor.IncludesOfs(abs) {
		if _, err := b.cursor.UseRegion(abs, 1, 0); err != nil {
			return 0, err
		}
	}
	return b.cursor.Buffer()[abs-b.cursor.OfsBegin()], nil
}

// Slice returns the bytes in [i, j). Negative indices count from the end;
// j greater than Len() is clamped to Len(), meaning "to the end of the
// buffer". j == i yields an empty slice, and j < i (after resolving
// negatives) is an error.
//
// The fast path returns a zero-copy subslice of the current region's
// buffer when it already covers the entire requested range. Otherwise the
// slow path walks forward remapping the cursor for successive chunks and
// concatenates them into a freshly allocated slice; the result always
// equals what a direct read of the file would yield.
func (b *SlidingBuffer) Slice(i, j int64) ([]byte, error) {
	if b.entered <= 0 {
		return nil, ErrNotEntered
	}
	if i < 0 {
		i += b.size
	}
	if j < 0 {
		j += b.size
	}
	if j > b.size {
		j = b.size
	}
	if i < 0 || i > j {
		return nil, fmt.Errorf("smmap: invalid slice [%d:%d) for length %d", i, j, b.size)
	}

	absI := b.offset + i
	absJ := b.offset + j

	if b.cursor.IsValid() && b.cursor.OfsBegin() <= absI && absJ <= b.cursor.OfsEnd() {
		base := b.cursor.OfsBegin()
		return b.cursor.Buffer()[absI-base : absJ-base], nil
	}

	remaining := absJ - absI
	out := make([]byte, 0, remaining)
	ofs := absI
	for remaining > 0 {
		if _, err := b.cursor.UseRegion(ofs, remaining, 0); err != nil {
			return nil, err
		}
		if !b.cursor.IsValid() {
			return nil, fmt.Errorf("smmap: unexpected end of file at offset %d", ofs)
		}
		chunk := b.cursor.Buffer()
		n := int64(len(chunk))
		if n > remaining {
			n = remaining
		}
		out = append(out, chunk[:n]...)
		ofs += n
		remaining -= n
	}
	return out, nil
}
