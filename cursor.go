package smmap

import "fmt"

// Cursor is a movable handle into one file. At any moment it either has no
// current Region (invalid) or pins exactly one Region (valid), and it asks
// its manager to ensure a window covering a requested (offset, size)
// whenever it's moved with UseRegion.
//
// A Cursor must be released with Close once the caller is done with it, so
// the Manager can drop the backing RegionList when nothing references it
// anymore.
type Cursor struct {
	backend provider
	list    *RegionList

	region *Region
	relOfs int64
	size   int64

	closed bool
}

// IsAssociated reports whether the cursor has a RegionList (i.e. was
// minted by a Manager, even if it has never mapped anything).
func (c *Cursor) IsAssociated() bool { return c.list != nil }

// IsValid reports whether the cursor currently pins a Region.
func (c *Cursor) IsValid() bool { return c.region != nil }

// UseRegion assures the cursor points to a window which allows access to
// offset. flags is forwarded to the OS open call only when a new mapping
// is actually created; it's ignored otherwise.
//
// After the call, if the returned cursor IsValid, OfsBegin() <= offset and
// at least one byte at offset is accessible; the caller should read
// Size() bytes, which may be less than the requested size. The only case
// this leaves the cursor invalid without an error is offset >= FileSize():
// every other unrecoverable condition is surfaced as an error.
func (c *Cursor) UseRegion(offset, size int64, flags int) (*Cursor, error) {
	return c.useRegion(offset, size, flags, false)
}

func (c *Cursor) useRegion(offset, size int64, flags int, isRetry bool) (*Cursor, error) {
	if c.list == nil {
		return c, fmt.Errorf("smmap: cursor is not associated with a file")
	}

	size = c.backend.windowSizeHint(size)

	if !(c.region != nil && c.region.IncludesOfs(offset)) {
		c.unuseRegionLocked()

		if offset >= c.list.fileSize {
			return c, nil
		}

		region := c.list.find(offset)
		if region == nil {
			var err error
			region, err = c.backend.ensureRegion(c.list, offset, size, flags, isRetry)
			if err != nil {
				return c, err
			}
		}
		c.adopt(region)
	}

	region := c.region
	region.bumpUsage()
	c.relOfs = offset - region.baseOfs
	visible := size
	if offset+visible > region.OfsEnd() {
		visible = region.OfsEnd() - offset
	}
	c.size = visible
	return c, nil
}

// UnuseRegion releases the cursor's current region, if any. It is safe to
// call on an already-invalid cursor.
func (c *Cursor) UnuseRegion() {
	c.unuseRegionLocked()
}

func (c *Cursor) unuseRegionLocked() {
	if c.region == nil {
		return
	}
	c.region.release()
	c.region = nil
	c.relOfs = 0
	c.size = 0
}

func (c *Cursor) adopt(r *Region) {
	c.region = r
	r.acquire()
}

// OfsBegin is the absolute offset of the first byte the cursor currently
// exposes. Only meaningful when IsValid.
func (c *Cursor) OfsBegin() int64 {
	if c.region == nil {
		return 0
	}
	return c.region.baseOfs + c.relOfs
}

// OfsEnd is the absolute offset one past the last byte the cursor
// currently exposes.
func (c *Cursor) OfsEnd() int64 { return c.OfsBegin() + c.size }

// Size is the number of bytes currently accessible through the cursor.
func (c *Cursor) Size() int64 { return c.size }

// IncludesOfs reports whether ofs falls within the cursor's current
// window. Always false when the cursor is invalid.
func (c *Cursor) IncludesOfs(ofs int64) bool {
	if c.region == nil {
		return false
	}
	return c.OfsBegin() <= ofs && ofs < c.OfsEnd()
}

// Buffer returns the byte slice of length Size() the cursor currently
// exposes. Only meaningful when IsValid.
func (c *Cursor) Buffer() []byte {
	if c.region == nil {
		return nil
	}
	return c.region.mapping[c.relOfs : c.relOfs+c.size]
}

// FileSize returns the size of the underlying file.
func (c *Cursor) FileSize() int64 {
	if c.list == nil {
		return 0
	}
	return c.list.fileSize
}

// Path returns the path of the underlying mapped file. It fails with
// ErrWrongKeyKind if the cursor's FileKey is fd-keyed.
func (c *Cursor) Path() (string, error) {
	if c.list == nil {
		return "", fmt.Errorf("smmap: cursor is not associated with a file")
	}
	p, ok := c.list.key.Path()
	if !ok {
		return "", ErrWrongKeyKind
	}
	return p, nil
}

// FD returns the file descriptor of the underlying mapped file. It fails
// with ErrWrongKeyKind if the cursor's FileKey is path-keyed.
func (c *Cursor) FD() (int, error) {
	if c.list == nil {
		return 0, fmt.Errorf("smmap: cursor is not associated with a file")
	}
	fd, ok := c.list.key.FD()
	if !ok {
		return 0, ErrWrongKeyKind
	}
	return fd, nil
}

// Clone returns a new cursor pointing at the same file and, if this
// cursor is valid, sharing its current region (bumping that region's
// usage count, the same as a fresh selection would).
func (c *Cursor) Clone() *Cursor {
	cp := &Cursor{backend: c.backend, list: c.list, relOfs: c.relOfs, size: c.size}
	if cp.list != nil {
		cp.list.cursorRefs++
	}
	if c.region != nil {
		cp.region = c.region
		cp.region.acquire()
		cp.region.bumpUsage()
	}
	return cp
}

// Assign drops whatever this cursor currently holds and becomes a copy of
// rhs, as if by "close self, then clone rhs into self".
func (c *Cursor) Assign(rhs *Cursor) {
	c.Close()
	cp := rhs.Clone()
	c.backend = cp.backend
	c.list = cp.list
	c.region = cp.region
	c.relOfs = cp.relOfs
	c.size = cp.size
	c.closed = false
}

// Close releases the cursor's current region and deregisters it from its
// RegionList. If no other cursor remains associated with that list and
// the list holds no regions, the manager drops the list entirely. Close
// is idempotent.
func (c *Cursor) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.unuseRegionLocked()
	if c.list != nil {
		c.list.cursorRefs--
		c.backend.releaseList(c.list)
		c.list = nil
	}
}
