package resonance

// UUT orientations: which unit direction the table X axis drives.
const (
	SideToSide  = "SS"
	FrontToBack = "FB"
	Vertical    = "V"
)

// AxisLabel names the unit direction excited by a table axis. uutMapX is the
// unit direction aligned with table X; anything other than FB is treated as SS.
func AxisLabel(uutMapX, axis string) string {
	switch axis {
	case "X":
		if uutMapX == FrontToBack {
			return FrontToBack
		}
		return SideToSide
	case "Y":
		if uutMapX == FrontToBack {
			return SideToSide
		}
		return FrontToBack
	case "Z":
		return Vertical
	default:
		return axis
	}
}
