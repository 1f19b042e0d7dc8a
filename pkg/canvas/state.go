package canvas

import "github.com/matzehuels/kinboard/pkg/geometry"

// Mode names the active interaction state.
type Mode string

const (
	ModeIdle       Mode = "idle"
	ModePanning    Mode = "panning"
	ModeDragging   Mode = "dragging"
	ModeConnecting Mode = "connecting"
)

// State is the controller's interaction state. The concrete types are Idle,
// Panning, DraggingNode and Connecting; no other type can satisfy it.
type State interface {
	Mode() Mode
	state()
}

// Idle means no gesture is in progress.
type Idle struct{}

// Panning means the canvas is being dragged.
type Panning struct{}

// DraggingNode means a member card is being moved.
type DraggingNode struct {
	ID string
}

// Connecting means a connection is being dragged out of a handle. Pointer is
// the last pointer position in world space; it is unset until the first move.
type Connecting struct {
	SourceID   string
	Handle     geometry.Handle
	Pointer    geometry.Point
	HasPointer bool
}

func (Idle) Mode() Mode         { return ModeIdle }
func (Panning) Mode() Mode      { return ModePanning }
func (DraggingNode) Mode() Mode { return ModeDragging }
func (Connecting) Mode() Mode   { return ModeConnecting }

func (Idle) state()         {}
func (Panning) state()      {}
func (DraggingNode) state() {}
func (Connecting) state()   {}

// PendingConnection is a connect gesture released over empty canvas, waiting
// for the member the create form will produce. Position is the new card's
// top-left corner in world space.
type PendingConnection struct {
	SourceID     string          `json:"sourceId"`
	SourceHandle geometry.Handle `json:"sourceHandle"`
	Position     geometry.Point  `json:"position"`
}

// TargetKind classifies what a pointer event landed on.
type TargetKind int

const (
	TargetEmpty TargetKind = iota
	TargetCard
	TargetHandle
	TargetEdge
)

func (k TargetKind) String() string {
	switch k {
	case TargetCard:
		return "card"
	case TargetHandle:
		return "handle"
	case TargetEdge:
		return "edge"
	}
	return "empty"
}

// Target is the thing under the pointer. MemberID is set for cards and
// handles, Handle for handles, ConnectionID for edges.
type Target struct {
	Kind         TargetKind      `json:"kind"`
	MemberID     string          `json:"memberId,omitempty"`
	Handle       geometry.Handle `json:"handle,omitempty"`
	ConnectionID string          `json:"connectionId,omitempty"`
}

// Empty is the target for bare canvas.
var Empty = Target{Kind: TargetEmpty}

// Card returns the target for a member card body.
func Card(id string) Target { return Target{Kind: TargetCard, MemberID: id} }

// HandleOf returns the target for one handle of a member card.
func HandleOf(id string, h geometry.Handle) Target {
	return Target{Kind: TargetHandle, MemberID: id, Handle: h}
}

// Edge returns the target for a connection curve.
func Edge(id string) Target { return Target{Kind: TargetEdge, ConnectionID: id} }
