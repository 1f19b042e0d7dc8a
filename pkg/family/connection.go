package family

import (
	"github.com/matzehuels/kinboard/pkg/geometry"
)

// Labels given to a connection created by dragging between two handles.
const (
	DefaultLabel   = "Relation"
	DefaultLabelZh = "关系"
)

// DefaultColor is the stroke used when a connection has no color.
const DefaultColor = "#e5e7eb"

// Connection is a directed, labeled edge between two members.
type Connection struct {
	ID           string             `json:"id" bson:"_id" yaml:"id" validate:"required,max=128"`
	SourceID     string             `json:"sourceId" bson:"source_id" yaml:"sourceId" validate:"required,max=128"`
	TargetID     string             `json:"targetId" bson:"target_id" yaml:"targetId" validate:"required,max=128,nefield=SourceID"`
	SourceHandle geometry.Handle    `json:"sourceHandle" bson:"source_handle" yaml:"sourceHandle" validate:"oneof=top right bottom left"`
	TargetHandle geometry.Handle    `json:"targetHandle" bson:"target_handle" yaml:"targetHandle" validate:"oneof=top right bottom left"`
	Label        string             `json:"label" bson:"label" yaml:"label" validate:"max=100"`
	LabelZh      string             `json:"labelZh,omitempty" bson:"label_zh,omitempty" yaml:"labelZh,omitempty" validate:"max=100"`
	Color        string             `json:"color,omitempty" bson:"color,omitempty" yaml:"color,omitempty" validate:"omitempty,hexcolor"`
	LineStyle    geometry.LineStyle `json:"lineStyle,omitempty" bson:"line_style,omitempty" yaml:"lineStyle,omitempty" validate:"omitempty,oneof=solid dashed dotted"`
}

// DisplayLabel returns the localized label when localize is set and one is
// present, otherwise the default label.
func (c Connection) DisplayLabel(localize bool) string {
	if localize && c.LabelZh != "" {
		return c.LabelZh
	}
	return c.Label
}

// StrokeColor returns the connection's color or DefaultColor.
func (c Connection) StrokeColor() string {
	if c.Color == "" {
		return DefaultColor
	}
	return c.Color
}

// Touches reports whether the connection has id as either endpoint.
func (c Connection) Touches(id string) bool {
	return c.SourceID == id || c.TargetID == id
}

// NewConnection returns a connection with a fresh id and the default label.
func NewConnection(sourceID string, sourceHandle geometry.Handle, targetID string, targetHandle geometry.Handle) Connection {
	return Connection{
		ID:           NewID(),
		SourceID:     sourceID,
		TargetID:     targetID,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
		Label:        DefaultLabel,
		LabelZh:      DefaultLabelZh,
	}
}

// FindConnection returns the connection with the given id.
func FindConnection(conns []Connection, id string) (Connection, bool) {
	for _, c := range conns {
		if c.ID == id {
			return c, true
		}
	}
	return Connection{}, false
}
