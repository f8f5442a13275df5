package smmap

import "fmt"

// Region is one live OS memory mapping of a contiguous, page-aligned range
// of a file. Regions are immutable once created: the only mutable state is
// usageCount (an LRU key, bumped every time a cursor selects the region)
// and clients (how many cursors currently pin this region as their
// current one).
type Region struct {
	baseOfs int64
	length  int64
	mapping []byte

	usageCount uint64
	clients    int
}

// openRegion maps [alignedOfs, alignedOfs+requestedSize) of the file
// identified by key, clamped to the file's size. On unix, flags is
// forwarded to the OS open call verbatim; its meaning is otherwise
// unspecified. The Windows implementation does not use flags.
func openRegion(key FileKey, fileSize, alignedOfs, requestedSize int64, flags int) (*Region, error) {
	length := requestedSize
	if alignedOfs+length > fileSize {
		length = fileSize - alignedOfs
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: zero-length region requested at offset %d of a %d byte file", ErrMapFailed, alignedOfs, fileSize)
	}

	mapping, err := mmapFile(key, alignedOfs, length, flags)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMapFailed, err)
	}

	return &Region{baseOfs: alignedOfs, length: length, mapping: mapping}, nil
}

// OfsBegin is the aligned file offset of the mapping's first byte.
func (r *Region) OfsBegin() int64 { return r.baseOfs }

// OfsEnd is the first byte past the mapping.
func (r *Region) OfsEnd() int64 { return r.baseOfs + r.length }

// Size is the number of bytes actually mapped.
func (r *Region) Size() int64 { return r.length }

// IncludesOfs reports whether the absolute file offset ofs falls within
// this region's mapped range.
func (r *Region) IncludesOfs(ofs int64) bool {
	return r.baseOfs <= ofs && ofs < r.OfsEnd()
}

// Buffer returns the full mapped byte range.
func (r *Region) Buffer() []byte { return r.mapping }

// UsageCount returns the region's LRU key: the number of times a cursor
// has (re)selected it. Smaller means less recently used.
func (r *Region) UsageCount() uint64 { return r.usageCount }

func (r *Region) bumpUsage() { r.usageCount++ }

// ClientCount returns the number of cursors currently holding this region
// as their current region. Only regions with a client count of zero are
// legal LRU eviction targets.
func (r *Region) ClientCount() int { return r.clients }

func (r *Region) acquire() { r.clients++ }

func (r *Region) release() {
	if r.clients > 0 {
		r.clients--
	}
}

// close releases the OS mapping. It does not touch any manager accounting;
// callers (the Manager's eviction path) are responsible for decrementing
// memoryInUse/handlesInUse exactly once per Region, never twice.
func (r *Region) close() error {
	if r.mapping == nil {
		return nil
	}
	err := munmapFile(r.mapping)
	r.mapping = nil
	return err
}
