package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/schemagraph/internal/schema"
)

// node builds a template whose node ID is class (or id when class is empty)
// with one property per referenced class.
func node(id, class string, refs ...string) schema.Template {
	t := schema.Template{ID: id}
	if class != "" {
		t.TargetClass = &schema.Ref{ID: class}
	}
	for i, r := range refs {
		t.Properties = append(t.Properties, schema.Property{
			ID:    id + "-" + r,
			Order: i,
			Path:  schema.Ref{ID: "P" + r},
			Class: &schema.Ref{ID: r},
		})
	}
	return t
}

func TestCompute_Empty(t *testing.T) {
	assert.Empty(t, Compute(nil, "", DefaultOptions()))
}

func TestCompute_SingleNode(t *testing.T) {
	pos := Compute([]schema.Template{node("R1", "")}, "R1", DefaultOptions())
	assert.Equal(t, map[string]Position{"R1": {X: 0, Y: 0}}, pos)
}

func TestCompute_RootAndChild(t *testing.T) {
	templates := []schema.Template{node("R1", "", "C2"), node("R2", "C2")}

	pos := Compute(templates, "R1", DefaultOptions())

	assert.Equal(t, Position{X: 0, Y: 0}, pos["R1"])
	assert.Equal(t, Position{X: 400, Y: 0}, pos["C2"])
}

func TestCompute_XFollowsLevel(t *testing.T) {
	// C1 -> C2 -> C3 -> C4, plus C1 -> C3 shortcut.
	templates := []schema.Template{
		node("R1", "C1", "C2", "C3"),
		node("R2", "C2", "C3"),
		node("R3", "C3", "C4"),
		node("R4", "C4"),
	}

	depth, _ := Levels(templates, "C1")
	pos := Compute(templates, "C1", DefaultOptions())

	for id, lvl := range depth {
		assert.Equal(t, float64(lvl)*400, pos[id].X, "node %s", id)
	}
	assert.Equal(t, 1, depth["C3"], "BFS takes the shortest level")
	assert.Equal(t, 2, depth["C4"])
}

func TestCompute_LevelIsSymmetric(t *testing.T) {
	templates := []schema.Template{
		node("R1", "C1", "C2", "C3", "C4"),
		node("R2", "C2"),
		node("R3", "C3"),
		node("R4", "C4"),
	}

	pos := Compute(templates, "C1", DefaultOptions())

	assert.Equal(t, -300.0, pos["C2"].Y)
	assert.Equal(t, 0.0, pos["C3"].Y)
	assert.Equal(t, 300.0, pos["C4"].Y)

	sum := 0.0
	for _, id := range []string{"C2", "C3", "C4"} {
		sum += pos[id].Y
	}
	assert.Zero(t, sum)
}

func TestCompute_DisconnectedColumn(t *testing.T) {
	// C9 only points at the root, C8 is isolated.
	templates := []schema.Template{
		node("R1", "C1", "C2"),
		node("R2", "C2"),
		node("R9", "C9", "C1"),
		node("R8", "C8"),
	}

	pos := Compute(templates, "C1", DefaultOptions())

	assert.Equal(t, Position{X: 800, Y: 0}, pos["C9"])
	assert.Equal(t, Position{X: 800, Y: 300}, pos["C8"])
	assert.Equal(t, []string{"C9", "C8"}, Disconnected(templates, "C1"))
}

func TestCompute_UnknownRootFallsBackToFirst(t *testing.T) {
	templates := []schema.Template{node("R1", "", "C2"), node("R2", "C2")}

	assert.Equal(t, Compute(templates, "R1", DefaultOptions()), Compute(templates, "nope", DefaultOptions()))
	assert.Equal(t, Compute(templates, "R1", DefaultOptions()), Compute(templates, "", DefaultOptions()))
}

func TestCompute_ExplicitRootNotFirst(t *testing.T) {
	templates := []schema.Template{node("R2", "C2"), node("R1", "", "C2")}

	pos := Compute(templates, "R1", DefaultOptions())

	assert.Equal(t, Position{X: 0, Y: 0}, pos["R1"])
	assert.Equal(t, Position{X: 400, Y: 0}, pos["C2"])
}

func TestCompute_DuplicateNodeIDsLaidOutOnce(t *testing.T) {
	templates := []schema.Template{
		node("R1", "C1", "C2"),
		node("R2", "C2"),
		node("R3", "C2"),
	}

	pos := Compute(templates, "C1", DefaultOptions())
	require.Len(t, pos, 2)
	assert.Equal(t, Position{X: 400, Y: 0}, pos["C2"])
}

func TestCompute_CustomSpacing(t *testing.T) {
	templates := []schema.Template{node("R1", "C1", "C2", "C3"), node("R2", "C2"), node("R3", "C3")}

	pos := Compute(templates, "C1", Options{HorizontalSpacing: 100, VerticalSpacing: 50})

	assert.Equal(t, Position{X: 100, Y: -25}, pos["C2"])
	assert.Equal(t, Position{X: 100, Y: 25}, pos["C3"])
}

func TestCompute_Deterministic(t *testing.T) {
	templates := []schema.Template{
		node("R1", "C1", "C2", "C3"),
		node("R2", "C2", "C3", "C1"),
		node("R3", "C3", "C2"),
	}
	first := Compute(templates, "C1", DefaultOptions())
	for range 20 {
		assert.Equal(t, first, Compute(templates, "C1", DefaultOptions()))
	}
}

func TestLevels_Layers(t *testing.T) {
	templates := []schema.Template{
		node("R1", "C1", "C2", "C3"),
		node("R2", "C2", "C4"),
		node("R3", "C3"),
		node("R4", "C4"),
	}

	_, layers := Levels(templates, "C1")

	assert.Equal(t, [][]string{{"C1"}, {"C2", "C3"}, {"C4"}}, layers)
}
