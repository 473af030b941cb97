// Package stat carries the VOP_STAT result shape used by write's
// O_APPEND path and lseek's SEEK_END, using an accessor-struct idiom
// (unexported fields, Wxxx setters, xxx getters) rather than a plain
// exported-field struct.
package stat

// Stat_t mirrors a file's stat information.
type Stat_t struct {
	dev   uint
	ino   uint
	mode  uint
	size  uint
	rdev  uint
}

// Wdev stores the device ID.
func (st *Stat_t) Wdev(v uint) { st.dev = v }

// Wino stores the inode number.
func (st *Stat_t) Wino(v uint) { st.ino = v }

// Wmode records the file mode.
func (st *Stat_t) Wmode(v uint) { st.mode = v }

// Wsize records the file size.
func (st *Stat_t) Wsize(v uint) { st.size = v }

// Wrdev stores the rdev field.
func (st *Stat_t) Wrdev(v uint) { st.rdev = v }

// Mode returns the stored mode value.
func (st *Stat_t) Mode() uint { return st.mode }

// Size returns the stored size.
func (st *Stat_t) Size() uint { return st.size }

// Rdev returns the stored rdev.
func (st *Stat_t) Rdev() uint { return st.rdev }

// Rino returns the stored inode number.
func (st *Stat_t) Rino() uint { return st.ino }
