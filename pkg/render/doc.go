// Package render draws normalized pathway layouts.
//
// # Overview
//
//   - [arrow]: connector paths (cubic Bézier grouping) and edge labels
//   - [svg]: full diagram as SVG, plus the fallback diagram shown when a
//     pathway cannot be laid out
//   - format conversion (SVG to PDF/PNG) in this package
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg).
//
//	doc := svg.Render(l, g, svg.WithCurrent("Assess"))
//	pdf, err := render.ToPDF(ctx, doc)
//	png, err := render.ToPNG(ctx, doc, 2.0)  // 2x scale
//
// [arrow]: github.com/matzehuels/pathwaygraph/pkg/render/arrow
// [svg]: github.com/matzehuels/pathwaygraph/pkg/render/svg
package render
