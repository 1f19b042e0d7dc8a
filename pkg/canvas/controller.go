package canvas

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/observability"
)

// DefaultCardSize is the size of a member card in world units.
var DefaultCardSize = geometry.Size{W: 260, H: 100}

// DefaultHandleRadius is how far from a handle's anchor a press still hits it.
const DefaultHandleRadius = 8.0

// Options configures a Controller.
type Options struct {
	// CardSize is the member card size in world units. Zero means
	// DefaultCardSize.
	CardSize geometry.Size

	// Container is the visible canvas size in screen units, used to centre
	// the viewport and to place members created without a position.
	Container geometry.Size

	// HandleRadius is the hit radius of connection handles in world units.
	// Zero means DefaultHandleRadius.
	HandleRadius float64

	// Locked starts the canvas in view-only mode.
	Locked bool

	// Localize selects the alternate names and labels.
	Localize bool

	// Logger receives debug output for transitions. Nil means log.Default().
	Logger *log.Logger
}

// Controller owns the interaction state of one canvas and a local copy of
// the tree. Mutations are applied to the local copy first and then committed
// through the Service.
type Controller struct {
	svc    *family.Service
	logger *log.Logger

	card      geometry.Size
	container geometry.Size
	radius    float64
	localize  bool

	snap     family.Snapshot
	vp       geometry.Viewport
	state    State
	pending  *PendingConnection
	form     Form
	selected string
	locked   bool

	last  geometry.Point
	moved bool
}

// New returns an idle controller over svc with an empty snapshot. Call
// Reload to fetch the tree.
func New(svc *family.Service, opts Options) *Controller {
	if opts.CardSize.W <= 0 || opts.CardSize.H <= 0 {
		opts.CardSize = DefaultCardSize
	}
	if opts.HandleRadius <= 0 {
		opts.HandleRadius = DefaultHandleRadius
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Controller{
		svc:       svc,
		logger:    opts.Logger,
		card:      opts.CardSize,
		container: opts.Container,
		radius:    opts.HandleRadius,
		localize:  opts.Localize,
		locked:    opts.Locked,
		vp:        geometry.NewViewport(),
		state:     Idle{},
	}
}

// State returns the current interaction state.
func (c *Controller) State() State { return c.state }

// Pending returns the connection waiting for the create form, or nil.
func (c *Controller) Pending() *PendingConnection { return c.pending }

// Viewport returns the current pan/zoom transform.
func (c *Controller) Viewport() geometry.Viewport { return c.vp }

// Snapshot returns a copy of the local tree.
func (c *Controller) Snapshot() family.Snapshot { return c.snap.Clone() }

// Locked reports whether the canvas is in view-only mode.
func (c *Controller) Locked() bool { return c.locked }

// Selected returns the selected member id, or "".
func (c *Controller) Selected() string { return c.selected }

// Localized reports whether alternate names and labels are shown.
func (c *Controller) Localized() bool { return c.localize }

// CardSize returns the card size in world units.
func (c *Controller) CardSize() geometry.Size { return c.card }

// SetContainer records the visible canvas size after a resize.
func (c *Controller) SetContainer(s geometry.Size) { c.container = s }

// SetViewport replaces the pan/zoom transform. A zero scale means 1; other
// scales are clamped.
func (c *Controller) SetViewport(vp geometry.Viewport) {
	if vp.Scale == 0 {
		vp.Scale = 1
	}
	c.vp = vp.WithScale(vp.Scale)
}

// SetLocalize switches between default and alternate names.
func (c *Controller) SetLocalize(on bool) { c.localize = on }

// Reload replaces the local tree with the store's. The first load also
// centres the viewport on the self member.
func (c *Controller) Reload(ctx context.Context) error {
	first := len(c.snap.Members) == 0
	snap, err := c.svc.Load(ctx)
	if err != nil {
		return err
	}
	c.snap = snap
	if c.selected != "" {
		if _, ok := c.snap.Member(c.selected); !ok {
			c.selected = ""
		}
	}
	if first {
		c.RecenterOnSelf()
	}
	c.logger.Debug("reloaded canvas", "members", len(snap.Members), "connections", len(snap.Connections))
	return nil
}

// SetSnapshot replaces the local tree without touching the store.
func (c *Controller) SetSnapshot(s family.Snapshot) {
	c.snap = s.Clone()
}

// =============================================================================
// Pointer input
// =============================================================================

// PointerDown starts a gesture. screen is relative to the canvas container.
func (c *Controller) PointerDown(t Target, screen geometry.Point) {
	if _, idle := c.state.(Idle); !idle {
		// A second press without a release (lost pointer-up) starts over.
		c.state = Idle{}
	}
	c.last = screen
	c.moved = false

	switch t.Kind {
	case TargetCard, TargetHandle:
		if _, ok := c.snap.Member(t.MemberID); !ok {
			c.state = Panning{}
			break
		}
		c.selected = t.MemberID
		switch {
		case c.locked:
		case t.Kind == TargetHandle && t.Handle.Valid():
			c.state = Connecting{SourceID: t.MemberID, Handle: t.Handle}
		default:
			c.state = DraggingNode{ID: t.MemberID}
		}
	default:
		c.state = Panning{}
	}

	if _, idle := c.state.(Idle); !idle {
		observability.Canvas().OnGestureStart(string(c.state.Mode()))
		c.logger.Debug("gesture start", "mode", c.state.Mode(), "target", t.Kind)
	}
}

// PointerMove updates the active gesture. It is a no-op when idle.
func (c *Controller) PointerMove(screen geometry.Point) {
	delta := screen.Sub(c.last)
	c.last = screen
	if delta != (geometry.Point{}) {
		c.moved = true
	}

	switch s := c.state.(type) {
	case Panning:
		c.vp = c.vp.Pan(delta)
	case DraggingNode:
		i := c.memberIndex(s.ID)
		if i < 0 {
			return
		}
		m := c.snap.Members[i]
		c.snap.Members[i] = m.MoveTo(m.Position().Add(delta.Scale(1 / c.vp.Scale)))
	case Connecting:
		s.Pointer = geometry.ScreenToWorld(screen, c.vp)
		s.HasPointer = true
		c.state = s
	}
}

// Outcome says what a pointer-up did.
type Outcome int

const (
	// OutcomeNone means nothing was committed.
	OutcomeNone Outcome = iota
	// OutcomeMoved means a dragged member's position was committed.
	OutcomeMoved
	// OutcomeConnected means a connection between two members was created.
	OutcomeConnected
	// OutcomePending means a pending connection was recorded and the create
	// member form should open.
	OutcomePending
	// OutcomeEditConnection means an edge was clicked and the connection
	// form should open.
	OutcomeEditConnection
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeConnected:
		return "connected"
	case OutcomePending:
		return "pending"
	case OutcomeEditConnection:
		return "edit-connection"
	}
	return "none"
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Result describes a completed gesture.
type Result struct {
	Outcome      Outcome `json:"outcome"`
	MemberID     string  `json:"memberId,omitempty"`
	ConnectionID string  `json:"connectionId,omitempty"`
}

// PointerUp ends the active gesture and commits its effect. The controller
// is Idle afterwards whatever the result; a failed commit is returned but the
// optimistic local change is kept until the next Reload.
func (c *Controller) PointerUp(ctx context.Context, t Target, screen geometry.Point) (Result, error) {
	prev := c.state
	c.state = Idle{}
	if screen != c.last {
		c.moved = true
	}
	c.last = screen

	var (
		res Result
		err error
	)
	switch s := prev.(type) {
	case Idle:
		return Result{}, nil
	case Panning:
		if t.Kind == TargetEdge && !c.moved {
			res, err = c.openConnection(t.ConnectionID)
		}
	case DraggingNode:
		res, err = c.commitMove(ctx, s.ID)
	case Connecting:
		res, err = c.finishConnect(ctx, s, t, screen)
	}

	committed := res.Outcome != OutcomeNone && err == nil
	observability.Canvas().OnGestureEnd(string(prev.Mode()), committed, err)
	if err != nil {
		c.logger.Warn("gesture commit failed", "mode", prev.Mode(), "err", err)
	}
	return res, err
}

func (c *Controller) commitMove(ctx context.Context, id string) (Result, error) {
	m, ok := c.snap.Member(id)
	if !ok {
		return Result{}, nil
	}
	res := Result{Outcome: OutcomeMoved, MemberID: id}
	if err := c.svc.Store.UpdateMember(ctx, m); err != nil {
		return res, errors.Wrap(errors.ErrCodeStore, err, "move member %s", id)
	}
	return res, nil
}

func (c *Controller) finishConnect(ctx context.Context, s Connecting, t Target, screen geometry.Point) (Result, error) {
	if t.Kind == TargetHandle {
		if t.MemberID == s.SourceID || !t.Handle.Valid() {
			return Result{}, nil
		}
		if _, ok := c.snap.Member(t.MemberID); !ok {
			return Result{}, nil
		}
		conn := family.NewConnection(s.SourceID, s.Handle, t.MemberID, t.Handle)
		c.snap.Connections = append(c.snap.Connections, conn)
		res := Result{Outcome: OutcomeConnected, ConnectionID: conn.ID}
		if err := c.svc.SaveConnection(ctx, conn, false); err != nil {
			return res, err
		}
		return res, nil
	}

	if !s.HasPointer {
		return Result{}, nil
	}
	release := geometry.ScreenToWorld(screen, c.vp)
	c.pending = &PendingConnection{
		SourceID:     s.SourceID,
		SourceHandle: s.Handle,
		Position:     release.Sub(c.card.Half()),
	}
	c.form = Form{Kind: FormCreateMember, Member: c.draftMember()}
	return Result{Outcome: OutcomePending, MemberID: s.SourceID}, nil
}

func (c *Controller) openConnection(id string) (Result, error) {
	conn, ok := family.FindConnection(c.snap.Connections, id)
	if !ok {
		return Result{}, nil
	}
	c.form = Form{Kind: FormEditConnection, Connection: &conn}
	return Result{Outcome: OutcomeEditConnection, ConnectionID: id}, nil
}

// =============================================================================
// View controls
// =============================================================================

// ToggleLock switches between view-only and edit mode. Locking abandons any
// drag or connect gesture in progress.
func (c *Controller) ToggleLock() bool {
	c.SetLocked(!c.locked)
	return c.locked
}

// SetLocked sets view-only mode.
func (c *Controller) SetLocked(locked bool) {
	c.locked = locked
	if !locked {
		return
	}
	switch c.state.(type) {
	case DraggingNode, Connecting:
		c.state = Idle{}
	}
}

// ZoomIn raises the scale by one step up to the maximum.
func (c *Controller) ZoomIn() { c.vp = c.vp.ZoomIn() }

// ZoomOut lowers the scale by one step down to the minimum.
func (c *Controller) ZoomOut() { c.vp = c.vp.ZoomOut() }

// RecenterOnSelf pans so the self member's position lands in the middle of
// the container, keeping the current scale. It does nothing without a self
// member.
func (c *Controller) RecenterOnSelf() bool {
	self, ok := c.snap.Self()
	if !ok {
		return false
	}
	c.vp = c.vp.CenterOn(self.Position(), c.container)
	return true
}

// Select marks a member as selected. An empty id clears the selection.
func (c *Controller) Select(id string) {
	if id == "" {
		c.selected = ""
		return
	}
	if _, ok := c.snap.Member(id); ok {
		c.selected = id
	}
}

// HitTest returns the target under a screen point. Handles are only hit in
// edit mode. Later members are drawn on top and win.
func (c *Controller) HitTest(screen geometry.Point) Target {
	return HitTest(c.snap, geometry.ScreenToWorld(screen, c.vp), HitOptions{
		CardSize:     c.card,
		HandleRadius: c.radius,
		Handles:      !c.locked,
	})
}

func (c *Controller) memberIndex(id string) int {
	return slices.IndexFunc(c.snap.Members, func(m family.Member) bool { return m.ID == id })
}
