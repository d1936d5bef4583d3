package export

import (
	"testing"

	"sketchbook/internal/domain"
)

func el(id string, typ domain.ElementType) domain.Element {
	return domain.Element{ID: id, Type: typ}
}

func ids(elements []domain.Element) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = e.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScopeFullScene(t *testing.T) {
	elements := []domain.Element{
		el("a", domain.ElementRectangle),
		el("b", domain.ElementEllipse),
		el("c", domain.ElementText),
	}
	got := Scope(elements, []string{"b"}, false)
	if !equalIDs(ids(got), []string{"a", "b", "c"}) {
		t.Errorf("full scene scope = %v", ids(got))
	}
}

func TestScopeExcludesDeleted(t *testing.T) {
	elements := []domain.Element{
		el("a", domain.ElementRectangle),
		{ID: "b", Type: domain.ElementEllipse, Deleted: true},
		el("c", domain.ElementText),
	}
	got := Scope(elements, nil, false)
	if !equalIDs(ids(got), []string{"a", "c"}) {
		t.Errorf("scope with deleted = %v", ids(got))
	}
}

func TestScopeSelectionOnly(t *testing.T) {
	elements := []domain.Element{
		el("a", domain.ElementRectangle),
		el("b", domain.ElementEllipse),
		el("c", domain.ElementText),
	}
	got := Scope(elements, []string{"c", "a"}, true)
	// Scene order is preserved regardless of selection order.
	if !equalIDs(ids(got), []string{"a", "c"}) {
		t.Errorf("selection scope = %v", ids(got))
	}
}

func TestScopeEmptySelectionFallsBack(t *testing.T) {
	elements := []domain.Element{
		el("a", domain.ElementRectangle),
		el("b", domain.ElementEllipse),
	}
	got := Scope(elements, nil, true)
	if !equalIDs(ids(got), []string{"a", "b"}) {
		t.Errorf("empty selection scope = %v", ids(got))
	}
}

func TestScopeStaleSelectionFallsBack(t *testing.T) {
	elements := []domain.Element{
		el("a", domain.ElementRectangle),
	}
	// The selected element no longer exists (deleted since selection).
	got := Scope(elements, []string{"gone"}, true)
	if !equalIDs(ids(got), []string{"a"}) {
		t.Errorf("stale selection scope = %v", ids(got))
	}
}

func TestScopeBoundTextFollowsContainer(t *testing.T) {
	elements := []domain.Element{
		el("box", domain.ElementRectangle),
		{ID: "label", Type: domain.ElementText, ContainerID: "box", Text: "hi"},
		el("other", domain.ElementEllipse),
	}
	got := Scope(elements, []string{"box"}, true)
	if !equalIDs(ids(got), []string{"box", "label"}) {
		t.Errorf("bound text scope = %v", ids(got))
	}
}

func TestScopeFrameSelectedIncludesMembers(t *testing.T) {
	elements := []domain.Element{
		el("frame", domain.ElementFrame),
		{ID: "m1", Type: domain.ElementRectangle, FrameID: "frame"},
		{ID: "m2", Type: domain.ElementEllipse, FrameID: "frame"},
		el("outside", domain.ElementText),
	}
	got := Scope(elements, []string{"frame"}, true)
	if !equalIDs(ids(got), []string{"frame", "m1", "m2"}) {
		t.Errorf("frame scope = %v", ids(got))
	}
}

func TestScopeFrameMemberSelectedIncludesFrame(t *testing.T) {
	elements := []domain.Element{
		el("frame", domain.ElementFrame),
		{ID: "m1", Type: domain.ElementRectangle, FrameID: "frame"},
		{ID: "m2", Type: domain.ElementEllipse, FrameID: "frame"},
		el("outside", domain.ElementText),
	}
	got := Scope(elements, []string{"m1"}, true)
	if !equalIDs(ids(got), []string{"frame", "m1", "m2"}) {
		t.Errorf("frame member scope = %v", ids(got))
	}
}
