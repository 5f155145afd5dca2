package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/render"
	"github.com/matzehuels/pathwaygraph/pkg/render/svg"
)

// RenderFromLayout generates output artifacts in the requested formats.
// The SVG is drawn once and converted for PNG and PDF.
func RenderFromLayout(ctx context.Context, l layout.Layout, req Request, formats []string) (map[string][]byte, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}

	var svgData []byte
	drawSVG := func() []byte {
		if svgData == nil {
			svgData = svg.Render(l, req.Graph,
				svg.WithCurrent(req.Current),
				svg.WithMinWidth(req.ViewportWidth))
		}
		return svgData
	}

	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = drawSVG()
		case FormatPNG:
			data, err = render.ToPNG(ctx, drawSVG(), req.Scale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, drawSVG())
		case FormatJSON:
			data, err = layout.MarshalDocument(req.document(l))
		}

		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// FallbackArtifacts renders the "no pathway loaded" diagram for hosts that
// must show something when the pathway is structurally broken. Only SVG
// and PNG/PDF conversions of it are produced.
func FallbackArtifacts(ctx context.Context, formats []string, scale float64) (map[string][]byte, error) {
	data := svg.RenderFallback(svg.NoPathway)
	out := make(map[string][]byte, len(formats))
	for _, format := range formats {
		var err error
		switch format {
		case FormatSVG:
			out[format] = data
		case FormatPNG:
			out[format], err = render.ToPNG(ctx, data, scale)
		case FormatPDF:
			out[format], err = render.ToPDF(ctx, data)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fallback %s: %w", format, err)
		}
	}
	return out, nil
}
