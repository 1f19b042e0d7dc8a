package canvas

import (
	"time"

	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/kinship"
	"github.com/matzehuels/kinboard/pkg/observability"
)

// RenderModel is everything a presentation layer needs to draw one frame.
// All positions are in world space; apply Viewport to reach the screen.
type RenderModel struct {
	Viewport geometry.Viewport  `json:"viewport"`
	Mode     Mode               `json:"mode"`
	Locked   bool               `json:"locked"`
	CardSize geometry.Size      `json:"cardSize"`
	Nodes    []NodeView         `json:"nodes"`
	Edges    []EdgeView         `json:"edges"`
	Preview  *PreviewView       `json:"preview,omitempty"`
	Pending  *PendingConnection `json:"pending,omitempty"`
}

// NodeView is one member card.
type NodeView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Role      string         `json:"role"`
	BirthDate string         `json:"birthDate,omitempty"`
	Avatar    string         `json:"avatar,omitempty"`
	Gender    family.Gender  `json:"gender"`
	Position  geometry.Point `json:"position"`

	// Relation is the resolved path from the self member, or the role when
	// no path exists (HasRelation false).
	Relation    string `json:"relation"`
	HasRelation bool   `json:"hasRelation"`

	IsSelf   bool `json:"isSelf"`
	Dragging bool `json:"dragging"`
	Selected bool `json:"selected"`
}

// EdgeView is one connection curve.
type EdgeView struct {
	ID        string         `json:"id"`
	SourceID  string         `json:"sourceId"`
	TargetID  string         `json:"targetId"`
	Curve     geometry.Curve `json:"-"`
	Path      string         `json:"path"`
	LabelPos  geometry.Point `json:"labelPos"`
	Label     string         `json:"label"`
	Color     string         `json:"color"`
	DashArray string         `json:"dashArray,omitempty"`
}

// PreviewView is the straight line drawn while a connection is dragged out.
type PreviewView struct {
	From      geometry.Point `json:"from"`
	To        geometry.Point `json:"to"`
	Path      string         `json:"path"`
	DashArray string         `json:"dashArray"`
}

// ProjectOptions carries the view settings that are not part of the tree.
type ProjectOptions struct {
	CardSize geometry.Size
	Localize bool
	Locked   bool
	Selected string
	Pending  *PendingConnection
}

// Project builds the render model for snapshot s in interaction state st.
// Connections with a missing endpoint are skipped.
func Project(s family.Snapshot, st State, vp geometry.Viewport, opts ProjectOptions) RenderModel {
	start := time.Now()
	if opts.CardSize.W <= 0 || opts.CardSize.H <= 0 {
		opts.CardSize = DefaultCardSize
	}
	if st == nil {
		st = Idle{}
	}

	rm := RenderModel{
		Viewport: vp,
		Mode:     st.Mode(),
		Locked:   opts.Locked,
		CardSize: opts.CardSize,
		Nodes:    make([]NodeView, 0, len(s.Members)),
		Edges:    make([]EdgeView, 0, len(s.Connections)),
		Pending:  opts.Pending,
	}

	for _, conn := range s.Connections {
		curve, ok := connectionCurve(s, conn, opts.CardSize)
		if !ok {
			continue
		}
		rm.Edges = append(rm.Edges, EdgeView{
			ID:        conn.ID,
			SourceID:  conn.SourceID,
			TargetID:  conn.TargetID,
			Curve:     curve,
			Path:      curve.String(),
			LabelPos:  curve.Midpoint(),
			Label:     conn.DisplayLabel(opts.Localize),
			Color:     conn.StrokeColor(),
			DashArray: geometry.DashArray(conn.LineStyle),
		})
	}

	if c, ok := st.(Connecting); ok && c.HasPointer {
		if src, found := s.Member(c.SourceID); found {
			from := geometry.AnchorPosition(src.Position(), opts.CardSize, c.Handle)
			rm.Preview = &PreviewView{
				From:      from,
				To:        c.Pointer,
				Path:      geometry.LinePath(from, c.Pointer),
				DashArray: geometry.PreviewDashArray,
			}
		}
	}

	var dragging string
	if d, ok := st.(DraggingNode); ok {
		dragging = d.ID
	}
	labels := kinship.Labels(s.Members, s.Connections, opts.Localize)
	for _, m := range s.Members {
		relation, has := labels[m.ID]
		if !has {
			relation = m.Role
		}
		rm.Nodes = append(rm.Nodes, NodeView{
			ID:          m.ID,
			Name:        m.DisplayName(opts.Localize),
			Role:        m.Role,
			BirthDate:   m.BirthDate,
			Avatar:      m.Avatar,
			Gender:      m.Gender,
			Position:    m.Position(),
			Relation:    relation,
			HasRelation: has,
			IsSelf:      m.IsSelf,
			Dragging:    m.ID == dragging,
			Selected:    m.ID == opts.Selected,
		})
	}

	observability.Canvas().OnProject(len(rm.Nodes), len(rm.Edges), time.Since(start))
	return rm
}

// Model projects the controller's current state.
func (c *Controller) Model() RenderModel {
	return Project(c.snap, c.state, c.vp, ProjectOptions{
		CardSize: c.card,
		Localize: c.localize,
		Locked:   c.locked,
		Selected: c.selected,
		Pending:  c.pending,
	})
}
