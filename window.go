package smmap

// Window is a pure geometric range [Ofs, Ofs+Size) in bytes, used to work
// out where a Region should be placed before a mapping is actually made.
// All arithmetic on Windows is done before any OS call; a Region is only
// created once the final placement is known.
type Window struct {
	Ofs  int64
	Size int64
}

// windowFromRegion returns the Window spanning exactly r's mapped range.
func windowFromRegion(r *Region) Window {
	return Window{Ofs: r.baseOfs, Size: r.length}
}

// OfsEnd is the first byte past the window.
func (w Window) OfsEnd() int64 {
	return w.Ofs + w.Size
}

// ExtendLeftTo grows w's Ofs downward to meet left's end, without ever
// pushing w's size above maxSize. If w already starts at or before left's
// end, it is left untouched. The bytes originally covered by w remain
// covered afterward.
func (w *Window) ExtendLeftTo(left Window, maxSize int64) {
	if w.Ofs <= left.OfsEnd() {
		return
	}
	end := w.OfsEnd()
	newOfs := left.OfsEnd()
	if end-newOfs > maxSize {
		newOfs = end - maxSize
	}
	if newOfs < 0 {
		newOfs = 0
	}
	w.Ofs = newOfs
	w.Size = end - newOfs
}

// ExtendRightTo grows w's Size upward to meet right's start, without ever
// pushing w's size above maxSize. If w already ends at or past right's
// start, it is left untouched.
func (w *Window) ExtendRightTo(right Window, maxSize int64) {
	if w.OfsEnd() >= right.Ofs {
		return
	}
	newEnd := right.Ofs
	if newEnd-w.Ofs > maxSize {
		newEnd = w.Ofs + maxSize
	}
	w.Size = newEnd - w.Ofs
}

// Align rounds Ofs down and Size up to multiples of the system page size.
// It is idempotent.
func (w *Window) Align() {
	end := w.OfsEnd()
	alignedOfs := w.Ofs &^ (pageSize - 1)
	alignedEnd := (end + pageSize - 1) &^ (pageSize - 1)
	w.Ofs = alignedOfs
	w.Size = alignedEnd - alignedOfs
}
