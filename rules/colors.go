package rules

var defaultColors = []string{
	"#8f4949",
	"#49628f",
	"#7f498f",
	"#8f7f49",
	"#628f49",
	"#cd1e91",
	"#741ecd",
	"#1e4fcd",
	"#1ecdc7",
	"#1ecd3f",
	"#cdcb1e",
	"#cd681e",
}

// nextColor cycles the palette per world, so a replayed game colours its
// snakes the same way.
func (w *World) nextColor() string {
	c := defaultColors[w.colors%len(defaultColors)]
	w.colors++
	return c
}
