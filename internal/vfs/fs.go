package vfs

import (
	"sync"

	"osteach/internal/defs"
	"osteach/internal/mem"
	"osteach/internal/ustr"
)

// Dir_t is an in-memory directory: a name-to-vnode map plus a parent
// pointer for "..". The root directory's parent is itself.
type Dir_t struct {
	mu      sync.Mutex
	parent  *Dir_t
	entries map[string]any // string -> *Dir_t or SeekableVnode_i
}

func newDir(parent *Dir_t) *Dir_t {
	d := &Dir_t{entries: make(map[string]any)}
	if parent == nil {
		d.parent = d
	} else {
		d.parent = parent
	}
	return d
}

// VFS_t is the filesystem root plus the console device, standing in for
// vfs_open/vfs_chdir/vfs_getcwd and friends.
type VFS_t struct {
	root    *Dir_t
	console *Console_t
}

// MkVFS returns a filesystem with an empty root directory and a console
// device. The console is reached through OpenConsole; Open does not
// resolve the "con:" pathname to it.
func MkVFS(pm *mem.Physmem_t) *VFS_t {
	console := NewConsole()
	console.Bind(pm)
	return &VFS_t{
		root:    newDir(nil),
		console: console,
	}
}

// Root returns the filesystem's root directory, the starting point for a
// freshly created process's CWD.
func (v *VFS_t) Root() *Dir_t { return v.root }

// walk walks path components starting from start, requiring every
// component but the last to be a directory.
func (v *VFS_t) walk(start *Dir_t, parts []ustr.Ustr, create bool) (*Dir_t, string, defs.Err_t) {
	dir := start
	for i, part := range parts {
		last := i == len(parts)-1
		name := part.String()
		if part.Isdot() {
			continue
		}
		if part.Isdotdot() {
			dir.mu.Lock()
			parent := dir.parent
			dir.mu.Unlock()
			dir = parent
			continue
		}
		if last {
			return dir, name, 0
		}
		dir.mu.Lock()
		next, ok := dir.entries[name]
		if !ok {
			if !create {
				dir.mu.Unlock()
				return nil, "", defs.EFAULT
			}
			nd := newDir(dir)
			dir.entries[name] = nd
			next = nd
		}
		dir.mu.Unlock()
		nextDir, ok := next.(*Dir_t)
		if !ok {
			return nil, "", defs.EFAULT
		}
		dir = nextDir
	}
	return dir, "", 0
}

// Open resolves path relative to cwd (or root, for an absolute path),
// optionally creating a regular file when O_CREAT is set. It wraps
// vfs_open's contract: (path, flags, mode) -> vnode.
func (v *VFS_t) Open(cwd *Dir_t, path ustr.Ustr, flags int, mode int) (SeekableVnode_i, defs.Err_t) {
	start := cwd
	if path.IsAbsolute() || cwd == nil {
		start = v.root
	}
	parts := path.Split()
	if len(parts) == 0 {
		return nil, defs.EFAULT
	}
	dir, name, err := v.walk(start, parts, flags&O_CREAT != 0)
	if err != 0 {
		return nil, err
	}

	dir.mu.Lock()
	defer dir.mu.Unlock()
	entry, ok := dir.entries[name]
	if !ok {
		if flags&O_CREAT == 0 {
			return nil, defs.EFAULT
		}
		mf := newMemFile()
		dir.entries[name] = mf
		return mf, 0
	}
	mf, ok := entry.(SeekableVnode_i)
	if !ok {
		return nil, defs.EFAULT
	}
	if flags&O_TRUNC != 0 {
		if real, ok := mf.(*MemFile_t); ok {
			real.mu.Lock()
			real.data = nil
			real.mu.Unlock()
		}
	}
	mf.VOP_INCREF()
	return mf, 0
}

// Chdir resolves path to a directory relative to cwd and returns it.
func (v *VFS_t) Chdir(cwd *Dir_t, path ustr.Ustr) (*Dir_t, defs.Err_t) {
	start := cwd
	if path.IsAbsolute() || cwd == nil {
		start = v.root
	}
	parts := path.Split()
	dir := start
	for _, part := range parts {
		if part.Isdot() {
			continue
		}
		if part.Isdotdot() {
			dir.mu.Lock()
			parent := dir.parent
			dir.mu.Unlock()
			dir = parent
			continue
		}
		dir.mu.Lock()
		next, ok := dir.entries[part.String()]
		dir.mu.Unlock()
		if !ok {
			return nil, defs.EFAULT
		}
		nd, ok := next.(*Dir_t)
		if !ok {
			return nil, defs.EFAULT
		}
		dir = nd
	}
	return dir, 0
}

// OpenConsole returns the single shared console vnode, opened as "con:"
// three times by proc_create_runprogram to populate fds 0/1/2.
func (v *VFS_t) OpenConsole() SeekableVnode_i {
	v.console.VOP_INCREF()
	return v.console
}
