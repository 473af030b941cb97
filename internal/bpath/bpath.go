// Package bpath resolves "." and ".." components out of a path,
// producing a canonical absolute path. Its contract matches its call
// site in fd.Cwd_t (Canonicalpath), which always hands it an
// already-absolute path.
package bpath

import "osteach/internal/ustr"

// Canonicalize resolves "." and ".." components of an absolute path,
// returning a new absolute Ustr with no trailing slash (except the root
// path itself, which canonicalizes to "/").
func Canonicalize(p ustr.Ustr) ustr.Ustr {
	parts := p.Split()
	stack := make([]ustr.Ustr, 0, len(parts))
	for _, part := range parts {
		switch {
		case part.Isdot():
			continue
		case part.Isdotdot():
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, part)
		}
	}
	if len(stack) == 0 {
		return ustr.MkUstrRoot()
	}
	out := ustr.Ustr{'/'}
	for i, part := range stack {
		if i > 0 {
			out = append(out, '/')
		}
		out = append(out, part...)
	}
	return out
}
