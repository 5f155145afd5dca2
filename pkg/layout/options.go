package layout

import (
	"io"

	"github.com/charmbracelet/log"
)

// Defaults shared by the CLI, the HTTP server and the explorer.
const (
	// DefaultYOffset is the top margin added to every y coordinate.
	DefaultYOffset = 16.0

	// DefaultViewportWidth is used when the host does not report a width.
	DefaultViewportWidth = 1200.0
)

// DefaultNodeSize is the size used for nodes that have not been measured.
var DefaultNodeSize = Size{Width: 150, Height: 50}

// Options tunes the adapter and the normalizer. The zero value is usable.
type Options struct {
	// DefaultSize replaces missing measurements. Zero means DefaultNodeSize.
	DefaultSize Size

	// YOffset is the top margin. Zero means DefaultYOffset; use a negative
	// value to request no margin.
	YOffset float64

	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.DefaultSize.Width <= 0 || o.DefaultSize.Height <= 0 {
		o.DefaultSize = DefaultNodeSize
	}
	switch {
	case o.YOffset == 0:
		o.YOffset = DefaultYOffset
	case o.YOffset < 0:
		o.YOffset = 0
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}
