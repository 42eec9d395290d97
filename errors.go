package pcd8544

import "errors"

var (
	// ErrNotInitialized is returned by operations on a Dev that was halted.
	ErrNotInitialized = errors.New("pcd8544: not initialized")
	// ErrOutOfRange is returned for coordinates, pages or settings outside
	// what the controller accepts.
	ErrOutOfRange = errors.New("pcd8544: out of range")
	// ErrInvalidLayout is returned when none of the requested glyphs fit.
	ErrInvalidLayout = errors.New("pcd8544: text does not fit")
	// ErrResourceUnavailable is returned when the SPI port or a GPIO line
	// cannot be acquired.
	ErrResourceUnavailable = errors.New("pcd8544: resource unavailable")
	// ErrInvalidPin is returned for header pins that are not GPIO lines.
	ErrInvalidPin = errors.New("pcd8544: invalid header pin")
	// ErrBufferSize is returned by Write for frames that are not BufferSize
	// bytes long.
	ErrBufferSize = errors.New("pcd8544: invalid buffer size")
)
