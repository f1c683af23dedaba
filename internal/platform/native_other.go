//go:build !windows && !linux

package platform

import (
	"fmt"
	"log/slog"
	"runtime"
)

func newNative(Options, *slog.Logger) (Backend, error) {
	return nil, fmt.Errorf("%w: no native backend for %s", ErrUnsupported, runtime.GOOS)
}
