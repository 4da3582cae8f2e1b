package dctpress

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned for an out-of-range quality factor,
	// a non-positive block size, mismatched buffer shapes or a malformed
	// buffer.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnsupportedFormat is returned when an image format or file
	// extension cannot be read or written.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrRemote is returned when the remote compressor answers with a
	// failure or an unreadable response.
	ErrRemote = errors.New("remote compression failed")
)

func errInvalidChannel(c int) error {
	return fmt.Errorf("dctpress: channel %d outside [0, %d): %w", c, colorChannels, ErrInvalidParameter)
}
