package geometry

// LineStyle is the stroke pattern of a connection.
type LineStyle string

const (
	LineSolid  LineStyle = "solid"
	LineDashed LineStyle = "dashed"
	LineDotted LineStyle = "dotted"
)

// DashArray returns the SVG stroke-dasharray for s. Solid, empty and unknown
// styles all map to "" (no dashes).
func DashArray(s LineStyle) string {
	switch s {
	case LineDashed:
		return "8 4"
	case LineDotted:
		return "2 2"
	default:
		return ""
	}
}

// PreviewDashArray is the dash pattern of the in-progress connect line.
const PreviewDashArray = "5 5"
