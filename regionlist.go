package smmap

import "sort"

// RegionList is the per-file ordered collection of live Regions for one
// FileKey, sorted strictly by base offset with no overlaps. It also
// tracks how many cursors are currently associated with this file (not
// necessarily pinning a region), which the Manager uses to decide when a
// now-empty list can be dropped.
type RegionList struct {
	key      FileKey
	fileSize int64
	regions  []*Region

	cursorRefs int
}

func newRegionList(key FileKey) (*RegionList, error) {
	size, err := statSize(key)
	if err != nil {
		return nil, err
	}
	return &RegionList{key: key, fileSize: size}, nil
}

// Key returns the FileKey this list was created for.
func (rl *RegionList) Key() FileKey { return rl.key }

// FileSize returns the file's size as captured when the list was created.
func (rl *RegionList) FileSize() int64 { return rl.fileSize }

// Len returns the number of live regions in the list.
func (rl *RegionList) Len() int { return len(rl.regions) }

func (rl *RegionList) empty() bool { return len(rl.regions) == 0 }

// find returns the region containing the absolute offset ofs, or nil.
func (rl *RegionList) find(ofs int64) *Region {
	i := sort.Search(len(rl.regions), func(i int) bool {
		return rl.regions[i].OfsEnd() > ofs
	})
	if i < len(rl.regions) && rl.regions[i].IncludesOfs(ofs) {
		return rl.regions[i]
	}
	return nil
}

// insertPos returns the index at which a new region starting at ofs
// should be inserted to keep the list sorted by base offset.
func (rl *RegionList) insertPos(ofs int64) int {
	return sort.Search(len(rl.regions), func(i int) bool {
		return rl.regions[i].baseOfs >= ofs
	})
}

// neighbours returns the Windows of the regions immediately to the left
// and right of insertPos, substituting (0,0) and (fileSize,0) respectively
// when there is no such neighbour.
func (rl *RegionList) neighbours(insertPos int) (left, right Window) {
	if insertPos > 0 {
		left = windowFromRegion(rl.regions[insertPos-1])
	} else {
		left = Window{Ofs: 0, Size: 0}
	}
	if insertPos < len(rl.regions) {
		right = windowFromRegion(rl.regions[insertPos])
	} else {
		right = Window{Ofs: rl.fileSize, Size: 0}
	}
	return left, right
}

func (rl *RegionList) insertAt(i int, r *Region) {
	rl.regions = append(rl.regions, nil)
	copy(rl.regions[i+1:], rl.regions[i:])
	rl.regions[i] = r
}

func (rl *RegionList) removeAt(i int) *Region {
	r := rl.regions[i]
	copy(rl.regions[i:], rl.regions[i+1:])
	rl.regions[len(rl.regions)-1] = nil
	rl.regions = rl.regions[:len(rl.regions)-1]
	return r
}
