package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pd2trade/pd2sync/pkg/pd2sync"
)

// parsePopupFlags parses --popup values of the form id=left,top,right,bottom.
// Repeating an id adds further regions to that window.
func parsePopupFlags(values []string) (map[string][]pd2sync.PopupRect, error) {
	out := make(map[string][]pd2sync.PopupRect)
	for _, v := range values {
		id, coords, ok := strings.Cut(v, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --popup %q: want id=left,top,right,bottom", v)
		}

		parts := strings.Split(coords, ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid --popup %q: want 4 coordinates, got %d", v, len(parts))
		}
		var n [4]float64
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid --popup %q: %w", v, err)
			}
			n[i] = f
		}
		r := popupRect(n)
		if r.Right < r.Left || r.Bottom < r.Top {
			return nil, fmt.Errorf("invalid --popup %q: right/bottom must not be less than left/top", v)
		}
		out[id] = append(out[id], r)
	}
	return out, nil
}

// mergePopups combines config file regions with flag regions. Flags replace
// the config entry for the same window id.
func mergePopups(fromConfig map[string][][4]float64, fromFlags map[string][]pd2sync.PopupRect) map[string][]pd2sync.PopupRect {
	out := make(map[string][]pd2sync.PopupRect, len(fromConfig)+len(fromFlags))
	for id, rects := range fromConfig {
		list := make([]pd2sync.PopupRect, 0, len(rects))
		for _, r := range rects {
			list = append(list, popupRect(r))
		}
		out[id] = list
	}
	for id, rects := range fromFlags {
		out[id] = rects
	}
	return out
}

func popupRect(n [4]float64) pd2sync.PopupRect {
	return pd2sync.PopupRect{Left: n[0], Top: n[1], Right: n[2], Bottom: n[3]}
}
