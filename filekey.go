package smmap

import "strconv"

type fileKeyKind uint8

const (
	pathKeyKind fileKeyKind = iota
	fdKeyKind
)

// FileKey is the identity under which a Manager deduplicates RegionLists:
// either a filesystem path or an OS file descriptor borrowed from the
// caller. Two path keys for the same string compare equal; two fd keys
// for the same underlying file but different fd values do not, nor does a
// path key ever equal an fd key for the same file.
type FileKey struct {
	kind fileKeyKind
	path string
	fd   int
}

// PathKey builds a FileKey identified by filesystem path.
func PathKey(path string) FileKey {
	return FileKey{kind: pathKeyKind, path: path}
}

// FDKey builds a FileKey identified by an OS file descriptor. The
// descriptor is borrowed: smmap never closes the caller's original (on
// unix it maps through a dup() of it; on Windows it uses the handle
// directly).
func FDKey(fd int) FileKey {
	return FileKey{kind: fdKeyKind, fd: fd}
}

// Path returns the key's path and true if it is a path key.
func (k FileKey) Path() (string, bool) {
	if k.kind != pathKeyKind {
		return "", false
	}
	return k.path, true
}

// FD returns the key's file descriptor and true if it is an fd key.
func (k FileKey) FD() (int, bool) {
	if k.kind != fdKeyKind {
		return 0, false
	}
	return k.fd, true
}

func (k FileKey) String() string {
	if p, ok := k.Path(); ok {
		return p
	}
	fd, _ := k.FD()
	return "fd:" + strconv.Itoa(fd)
}
