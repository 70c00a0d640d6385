package urdf

// UndefinedElement is one entry of the undefined-content side channel: a
// wholly unrecognized element, or a recognized element carrying extra
// unrecognized attributes or text.
type UndefinedElement struct {
	Tag  string
	Path string
	Line int

	// WhollyUnrecognized distinguishes captured unknown elements from
	// recognized elements that merely carry unknown attributes/text.
	WhollyUnrecognized bool

	Attributes map[string]string
	Text       string

	// Node is the captured entity, used to mirror nested structure into
	// the output.
	Node *Entity
}

type undefinedKey struct {
	path string
	line int
}

// CollectUndefined walks the whole document and returns every undefined
// element and every recognized element with undefined attributes/text, in
// document order, deduplicated by (path, line).
func CollectUndefined(robot *Robot) []UndefinedElement {
	var out []UndefinedElement
	seen := map[undefinedKey]bool{}
	collectUndefined(&robot.Entity, &out, seen)
	return out
}

// CollectUndefinedIn walks a single entity's subtree. Callers that combine
// per-subtree collections are responsible for cross-subtree deduplication;
// within one call the (path, line) dedup still applies.
func CollectUndefinedIn(e *Entity) []UndefinedElement {
	var out []UndefinedElement
	seen := map[undefinedKey]bool{}
	collectUndefined(e, &out, seen)
	return out
}

func collectUndefined(e *Entity, out *[]UndefinedElement, seen map[undefinedKey]bool) {
	for _, u := range e.UndefinedChildren {
		key := undefinedKey{u.Path, u.Line}
		if !seen[key] {
			seen[key] = true
			*out = append(*out, UndefinedElement{
				Tag:                u.Tag,
				Path:               u.Path,
				Line:               u.Line,
				WhollyUnrecognized: true,
				Attributes:         u.UndefinedAttrs,
				Text:               u.UndefinedText,
				Node:               u,
			})
		}
		collectUndefined(u, out, seen)
	}

	if e.hasUndefined() {
		key := undefinedKey{e.Path, e.Line}
		if !seen[key] {
			seen[key] = true
			*out = append(*out, UndefinedElement{
				Tag:        e.Tag,
				Path:       e.Path,
				Line:       e.Line,
				Attributes: e.UndefinedAttrs,
				Text:       e.UndefinedText,
				Node:       e,
			})
		}
	}

	for _, child := range e.children {
		collectUndefined(child.base(), out, seen)
	}
}
