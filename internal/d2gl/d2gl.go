// Package d2gl reads window geometry from the d2gl renderer wrapper's
// configuration file.
//
// d2gl.json lives in the game's install directory and may contain
// comments and trailing commas, so it is normalized with jsonc before
// decoding.
package d2gl

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// FileName is the configuration file name inside the install directory.
const FileName = "d2gl.json"

// ErrNotFound is returned when d2gl.json does not exist.
var ErrNotFound = errors.New("d2gl.json not found")

// Screen holds the subset of the "screen" section used for positioning.
type Screen struct {
	WindowSizeWidth  *int     `json:"window_size_width"`
	WindowSizeHeight *int     `json:"window_size_height"`
	WindowCentered   *bool    `json:"window_centered"`
	WindowPositionX  *float64 `json:"window_position_x"`
	WindowPositionY  *float64 `json:"window_position_y"`
}

type file struct {
	Screen Screen `json:"screen"`
}

// Path returns the d2gl.json path for an install directory.
func Path(installDir string) string {
	return filepath.Join(installDir, FileName)
}

// Load reads d2gl.json from installDir and returns the configured game
// window rectangle. A centered window reports origin (0, 0).
func Load(installDir string) (event.Rect, error) {
	path := Path(installDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return event.Rect{}, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return event.Rect{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes d2gl.json content into a window rectangle.
func Parse(data []byte) (event.Rect, error) {
	var f file
	if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
		return event.Rect{}, fmt.Errorf("decoding d2gl.json: %w", err)
	}

	s := f.Screen
	if s.WindowSizeWidth == nil || s.WindowSizeHeight == nil || s.WindowCentered == nil {
		return event.Rect{}, fmt.Errorf("d2gl.json: screen section is missing window size or centering")
	}

	rect := event.Rect{Width: *s.WindowSizeWidth, Height: *s.WindowSizeHeight}
	if !*s.WindowCentered {
		if s.WindowPositionX == nil || s.WindowPositionY == nil {
			return event.Rect{}, fmt.Errorf("d2gl.json: uncentered window without position")
		}
		rect.X = int(*s.WindowPositionX)
		rect.Y = int(*s.WindowPositionY)
	}
	return rect, nil
}
