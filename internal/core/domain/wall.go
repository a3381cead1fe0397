package domain

// Layout is the wall's view mode.
type Layout string

const (
	LayoutGrid  Layout = "grid"  // 2x2, all panes visible, everything muted
	LayoutFocus Layout = "focus" // one pane maximized, its audio unmuted
)

// Wall is the view state of the whole wall. Audio follows the layout: in grid
// everything is muted, in focus exactly the focused position is unmuted, and
// only if its camera has audio enabled.
type Wall struct {
	Layout  Layout   `json:"layout"`
	Focused Position `json:"focused"` // meaningful only when Layout == LayoutFocus
	Audible Position `json:"audible"` // -1 when nothing is audible
}

// NewWall returns the initial grid state.
func NewWall() Wall {
	return Wall{Layout: LayoutGrid, Focused: -1, Audible: -1}
}

// WallEvent is published whenever the wall layout or audio routing changes.
type WallEvent struct {
	Type string `json:"type"` // always "wall_state"
	Wall Wall   `json:"wall"`
}
