// Package pkg holds the libraries behind kinboard, a family tree kept as
// members and labeled connections on an infinite canvas.
//
// # Data flow
//
//	store (memory, file, badger, redis, mongo)
//	     ↓
//	[family] Service: Snapshot of members and connections
//	     ↓
//	[canvas] Controller: pointer gestures, forms, viewport
//	     ↓
//	[canvas] RenderModel (nodes, edge paths, preview, relations from [kinship])
//	     ↓
//	TUI, WebSocket frames, [render/svg], [render/nodelink]
//
// # Packages
//
// [geometry] - Points, card anchors, connection curves and the pan/zoom
// viewport. Pure functions, no state.
//
// [family] - Member and Connection records, validation, the Store interface
// and the Service that keeps at most one self member and cascades deletes.
//
// [kinship] - Breadth-first relationship resolution from the self member,
// up to three connections away.
//
// [canvas] - The interaction state machine (idle, panning, dragging,
// connecting), hit testing and render-model projection.
//
// [store] - Store backends and the factory that opens one from config.
//
// [io] - JSON, YAML and SQL import and export.
//
// [render] - SVG of the canvas, Graphviz diagrams, and PDF/PNG conversion.
//
// [cache] - Rendered artifacts keyed by tree content.
//
// [config], [errors], [observability], [retry], [buildinfo] - Ambient
// support shared by the CLI and the server.
package pkg
