package fd

import (
	"sync"

	"osteach/internal/bpath"
	"osteach/internal/ustr"
	"osteach/internal/vfs"
)

// Cwd_t tracks the current working directory for a process: the
// directory vnode and its canonical path.
type Cwd_t struct {
	mu   sync.Mutex // serializes chdirs
	Dir  *vfs.Dir_t
	Path ustr.Ustr
}

// MkRootCwd constructs a Cwd_t rooted at "/".
func MkRootCwd(root *vfs.Dir_t) *Cwd_t {
	return &Cwd_t{Dir: root, Path: ustr.MkUstrRoot()}
}

// Fullpath joins cwd with p if p is not already absolute.
func (cwd *Cwd_t) Fullpath(p ustr.Ustr) ustr.Ustr {
	cwd.mu.Lock()
	defer cwd.mu.Unlock()
	if p.IsAbsolute() {
		return p
	}
	return cwd.Path.Extend(p)
}

// Canonicalpath resolves path components relative to cwd.
func (cwd *Cwd_t) Canonicalpath(p ustr.Ustr) ustr.Ustr {
	return bpath.Canonicalize(cwd.Fullpath(p))
}

// Chdir updates the working directory after the caller has already
// resolved newDir/newPath via vfs.VFS_t.Chdir.
func (cwd *Cwd_t) Chdir(newDir *vfs.Dir_t, newPath ustr.Ustr) {
	cwd.mu.Lock()
	defer cwd.mu.Unlock()
	cwd.Dir = newDir
	cwd.Path = newPath
}

// Snapshot returns the current directory and path under the lock, for
// inheritance by proc_create_runprogram (refcount bump on the directory
// is the caller's responsibility; this in-memory VFS has no vnode
// refcount on directories themselves).
func (cwd *Cwd_t) Snapshot() (*vfs.Dir_t, ustr.Ustr) {
	cwd.mu.Lock()
	defer cwd.mu.Unlock()
	return cwd.Dir, cwd.Path
}
