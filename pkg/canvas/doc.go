// Package canvas implements the interactive family-tree canvas: the pointer
// state machine that turns raw pointer events into committed mutations, and
// the read-only render model a presentation layer draws.
//
// # Interaction States
//
// A [Controller] is always in exactly one [State]:
//
//	Idle ──down on empty──────────────▶ Panning ──up──▶ Idle
//	Idle ──down on card (unlocked)────▶ DraggingNode ──up (commit move)──▶ Idle
//	Idle ──down on handle (unlocked)──▶ Connecting ──up on other handle (create edge)──▶ Idle
//	                                               └─up on empty (pending + form)─────▶ Idle
//
// Releasing a connect gesture over empty canvas records a
// [PendingConnection] and asks the presentation layer to open the create
// member form. Submitting that form creates the member where the pointer was
// released and connects it to the source handle; cancelling discards the
// pending intent.
//
// Pointer-up always returns the controller to Idle, even when the commit it
// triggers fails. The error is returned to the caller.
//
// # Coordinates
//
// Pointer positions passed to the controller are screen coordinates relative
// to the canvas container. Panning adds raw screen deltas to the viewport
// offset; dragging moves the member by delta/scale so the card tracks the
// pointer at any zoom level.
//
// # Concurrency
//
// A Controller is not safe for concurrent use. Each front-end (terminal UI,
// websocket session) owns one and feeds it events from a single goroutine.
// Persistence runs through a [family.Service]; with the async store adapter
// commits return immediately and failures are reported out of band.
//
// # Rendering
//
// [Project] is a pure function from a snapshot plus interaction state to a
// [RenderModel]: member cards with their relationship labels, connection
// curves with label anchors, and the preview line of an in-progress connect
// gesture.
package canvas
