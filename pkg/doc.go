// Package pkg provides the core libraries for Pathwaygraph clinical pathway
// layout.
//
// # Overview
//
// Pathwaygraph turns a clinical pathway (a directed graph of steps, branches
// and labeled transitions rooted at a Start node) into pixel geometry: node
// boxes centered on a viewport and routed edges with label positions. The pkg
// directory is organized into three areas:
//
//  1. Domain logic ([pathway], [layout], [measure], [render])
//  2. Infrastructure ([cache], [session], [source], [observability])
//  3. Orchestration ([pipeline], [server])
//
// # Architecture
//
// The typical data flow:
//
//	pathway YAML/JSON, Mongo document
//	         ↓
//	    [pathway] package (graph + structural validation)
//	         ↓
//	    [measure] package (node sizes for the current expansion)
//	         ↓
//	    [layout] package (engine, adapter, normalization)
//	         ↓
//	    [render] package (SVG, PDF, PNG; JSON documents from [layout])
//
// # Quick Start
//
//	g, _ := pathway.ReadFile("chest-pain.yaml")
//	engine, _ := pipeline.NewEngine("dot")
//
//	v := layout.NewView(engine, measure.NewText(measure.TextOptions{}), layout.Options{})
//	v.SetGraph(g)
//	v.Resize(1200)
//	v.Click("Assess")
//
//	l, _ := v.Layout(ctx)
//	doc := svg.Render(l, g, svg.WithCurrent(v.Current()))
//
// The CLI and HTTP server go through [pipeline.Runner] instead, which adds
// layout and artifact caching:
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, engine, logger)
//	res, _ := runner.Render(ctx, req, []string{"svg", "json"})
//
// # Main Packages
//
// [pathway] - Node and edge types, YAML/JSON decoding and the structural
// checks a graph must pass before it can be laid out.
//
// [layout] - The engine interface, the adapter that collects engine output,
// normalization onto the viewport and the [layout.View] that owns expansion
// state across clicks and resizes. Engines live in [layout/dot] (Graphviz)
// and [layout/layered] (a pure Go ranked layout).
//
// [measure] - Text measurement producing node dimensions from labels and
// expanded details.
//
// [render] - SVG drawing, connector paths and PDF/PNG conversion.
//
// [cache] - Layout and artifact caching (file, memory, Redis).
//
// [session] - Per-viewer expansion state for the HTTP server.
//
// [source] - Pathway lookup by id from a directory or MongoDB.
//
// [pipeline] - Request validation, caching and rendering in one call.
//
// [server] - The HTTP API.
//
// [pathway]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/pathway
// [layout]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/layout
// [layout/dot]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/layout/dot
// [layout/layered]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/layout/layered
// [measure]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/measure
// [render]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/session
// [source]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/source
// [observability]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/pathwaygraph/pkg/server
package pkg
