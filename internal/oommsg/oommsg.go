// Package oommsg carries out-of-memory notifications from the physical
// allocator to any subsystem that wants to react (e.g. a daemon that
// reclaims caches).
package oommsg

// OomCh is notified when the system runs out of memory. Sends are
// best-effort: mem.AllocPage/AllocKpages never block on this channel.
var OomCh = make(chan Oommsg_t, 8)

// Oommsg_t is sent on OomCh when memory is exhausted.
type Oommsg_t struct {
	Need   int
	Resume chan bool
}

// Notify posts an OOM event without blocking if nobody is listening.
func Notify(need int) {
	select {
	case OomCh <- Oommsg_t{Need: need}:
	default:
	}
}
