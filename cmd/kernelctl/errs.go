package main

import (
	"errors"

	"osteach/internal/defs"
)

// toError translates the kernel's Err_t errno-style return into a Go
// error, the one place in the module where that conversion happens
// (internal packages stay on Err_t throughout).
func toError(err defs.Err_t) error {
	if err == 0 {
		return nil
	}
	return errors.New(err.String())
}
