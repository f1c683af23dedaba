package pd2sync

import (
	"errors"

	"github.com/pd2trade/pd2sync/internal/logfinder"
	"github.com/pd2trade/pd2sync/internal/platform"
)

// Sentinel errors returned by this package.
var (
	// ErrResolution is returned when the install directory or the chat log
	// cannot be found or created.
	ErrResolution = errors.New("pd2sync: log path resolution failed")

	// ErrWatch is returned when a native focus hook or a filesystem watch
	// cannot be established.
	ErrWatch = errors.New("pd2sync: watch could not be established")

	// ErrPlatformQuery wraps failed window system queries.
	ErrPlatformQuery = errors.New("pd2sync: platform query failed")

	// ErrInstallDirNotFound is wrapped by ErrResolution when no install
	// directory candidate exists.
	ErrInstallDirNotFound = logfinder.ErrInstallDirNotFound

	// ErrWindowNotFound is returned by backends when no window matches.
	ErrWindowNotFound = platform.ErrWindowNotFound

	// ErrUnsupported is returned by backends that cannot answer a query.
	ErrUnsupported = platform.ErrUnsupported

	// ErrClosed is returned when starting an engine that was closed.
	ErrClosed = errors.New("pd2sync: engine closed")
)
