package export

import "sketchbook/internal/domain"

// Scope derives the set of elements in scope for export from the full
// scene, preserving scene order. Deleted elements never export.
//
// With selectionOnly false the full scene exports. With it true the
// scoped set is the selection expanded by two rules: text bound to a
// selected container is included, and every member of a frame is
// included once the frame or any of its members is selected.
//
// When selectionOnly is true but nothing (live) is selected, the full
// scene exports. The alternative — an empty preview forced by an
// impossible selection request — helps nobody; falling back matches
// what the dialog shows before the user has selected anything.
func Scope(elements []domain.Element, selectedIDs []string, selectionOnly bool) []domain.Element {
	live := make([]domain.Element, 0, len(elements))
	for _, e := range elements {
		if !e.Deleted {
			live = append(live, e)
		}
	}
	if !selectionOnly {
		return live
	}

	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}
	anySelected := false
	for _, e := range live {
		if selected[e.ID] {
			anySelected = true
			break
		}
	}
	if !anySelected {
		return live
	}

	// Frames whose membership is dragged in: the frame itself is
	// selected, or any element belonging to it is.
	activeFrames := make(map[string]bool)
	for _, e := range live {
		if e.Type == domain.ElementFrame && selected[e.ID] {
			activeFrames[e.ID] = true
		}
		if e.FrameID != "" && selected[e.ID] {
			activeFrames[e.FrameID] = true
		}
	}

	included := make(map[string]bool, len(live))
	for _, e := range live {
		switch {
		case selected[e.ID]:
			included[e.ID] = true
		case e.FrameID != "" && activeFrames[e.FrameID]:
			included[e.ID] = true
		case e.Type == domain.ElementFrame && activeFrames[e.ID]:
			included[e.ID] = true
		}
	}

	// Bound text follows its container even when not independently
	// selected.
	for _, e := range live {
		if e.IsBoundText() && included[e.ContainerID] {
			included[e.ID] = true
		}
	}

	scoped := make([]domain.Element, 0, len(included))
	for _, e := range live {
		if included[e.ID] {
			scoped = append(scoped, e)
		}
	}
	return scoped
}
