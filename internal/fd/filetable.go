package fd

import (
	"sync"

	"osteach/internal/defs"
)

// FileTable_t is a fixed-size array of open-file pointers indexed by file
// descriptor [0, OPEN_MAX), with a table-wide lock guarding slot
// manipulation. Grounded on kern/include/file_table.h + file_table.c.
type FileTable_t struct {
	mu    sync.Mutex
	slots []*Ofile_t
}

// CreateFileTable allocates an empty table of the given size; all slots
// start nil.
func CreateFileTable(size int) *FileTable_t {
	return &FileTable_t{slots: make([]*Ofile_t, size)}
}

// Insert places of in the lowest free slot and returns its descriptor, or
// EMFILE if the table is full.
func (ft *FileTable_t) Insert(of *Ofile_t) (int, defs.Err_t) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	for i, s := range ft.slots {
		if s == nil {
			ft.slots[i] = of
			return i, 0
		}
	}
	return -1, defs.EMFILE
}

// InsertAt installs of at the specific descriptor fd, used by dup2.
// Returns the open-file object that previously occupied fd, if any (the
// caller is responsible for dropping its reference after releasing the
// table lock).
func (ft *FileTable_t) InsertAt(fd int, of *Ofile_t) (*Ofile_t, defs.Err_t) {
	if fd < 0 || fd >= len(ft.slots) {
		return nil, defs.EBADF
	}
	ft.mu.Lock()
	defer ft.mu.Unlock()
	old := ft.slots[fd]
	ft.slots[fd] = of
	return old, 0
}

// Get bumps the refcount of the object at fd and returns it: acquire
// table lock, read slot, bump refcount, release table lock.
func (ft *FileTable_t) Get(fd int) (*Ofile_t, defs.Err_t) {
	if fd < 0 || fd >= len(ft.slots) {
		return nil, defs.EBADF
	}
	ft.mu.Lock()
	of := ft.slots[fd]
	if of == nil {
		ft.mu.Unlock()
		return nil, defs.EBADF
	}
	of.Incref()
	ft.mu.Unlock()
	return of, 0
}

// Close clears the slot under the table lock, then drops a ref.
func (ft *FileTable_t) Close(fd int) defs.Err_t {
	if fd < 0 || fd >= len(ft.slots) {
		return defs.EBADF
	}
	ft.mu.Lock()
	of := ft.slots[fd]
	if of == nil {
		ft.mu.Unlock()
		return defs.EBADF
	}
	ft.slots[fd] = nil
	ft.mu.Unlock()
	of.Decref()
	return 0
}

// Copy allocates a new empty table and, under the source's lock, copies
// every non-nil slot as-is, bumping the refcount of the underlying
// object. Used by fork: parent and child share open-file objects, so
// offset updates are observed by both.
func (ft *FileTable_t) Copy() *FileTable_t {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	nt := CreateFileTable(len(ft.slots))
	for i, of := range ft.slots {
		if of == nil {
			continue
		}
		of.Incref()
		nt.slots[i] = of
	}
	return nt
}

// Destroy decrements refcounts on every non-nil slot (which may close the
// underlying file when the last reference drops), then frees the table.
//
// Decref happens before the slot is cleared, not after: clearing first
// and then decref'ing the now-nil pointer is a use-after-clear bug.
func (ft *FileTable_t) Destroy() {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	for i, of := range ft.slots {
		if of == nil {
			continue
		}
		of.Decref()
		ft.slots[i] = nil
	}
}
