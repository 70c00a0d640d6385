package convert

import (
	"sort"

	"github.com/newton-physics/urdf-usd-converter/internal/urdf"
	"github.com/newton-physics/urdf-usd-converter/internal/usd"
)

// authorTransmissions forwards transmission blocks as nested Scope prims
// carrying namespaced custom attributes; the physics schema has no native
// representation for them.
func (r *run) authorTransmissions() {
	if len(r.robot.Transmissions) == 0 {
		return
	}
	scope := r.defineScope(r.rootPrim, "Transmissions")
	for _, t := range r.robot.Transmissions {
		r.rep.Warnf("transmission", "transmission %q is not natively representable; forwarding as custom attributes", t.Name)
		p := r.defineScope(scope, t.Name)
		r.ownerPrims[&t.Entity] = p
		if t.Type != nil {
			r.stage.SetCustomAttribute(p, "urdf:type", t.Type.Text)
		}
		if j := t.Joint; j != nil {
			jp := r.defineScope(p, j.Name)
			r.ownerPrims[&j.Entity] = jp
			r.stage.SetCustomAttribute(jp, "urdf:element", "joint")
			if j.HardwareInterface != nil {
				r.stage.SetCustomAttribute(jp, "urdf:hardware_interface", j.HardwareInterface.Text)
			}
		}
		if a := t.Actuator; a != nil {
			ap := r.defineScope(p, a.Name)
			r.ownerPrims[&a.Entity] = ap
			r.stage.SetCustomAttribute(ap, "urdf:element", "actuator")
			if a.MechanicalReduction != nil {
				r.stage.SetCustomFloatAttribute(ap, "urdf:mechanical_reduction", a.MechanicalReduction.Value)
			}
			if a.HardwareInterface != nil {
				r.stage.SetCustomAttribute(ap, "urdf:hardware_interface", a.HardwareInterface.Text)
			}
		}
	}
}

type undefinedKey struct {
	path string
	line int
}

// authorUndefined forwards everything the schema registry did not
// recognize. Content owned by a link, joint, material, or transmission is
// bound near the owning prim; the rest collects under a catch-all scope.
// Each source element is authored exactly once, keyed by (path, line).
func (r *run) authorUndefined() {
	seen := map[undefinedKey]bool{}

	anchorOrNil := func(e *urdf.Entity) *usd.Prim { return r.ownerPrims[e] }

	var catchAll *usd.Prim
	ensureCatchAll := func() *usd.Prim {
		if catchAll == nil {
			catchAll = r.defineScope(r.rootPrim, "custom")
		}
		return catchAll
	}

	authorGroup := func(anchor *usd.Prim, items []urdf.UndefinedElement) {
		handled := map[*urdf.Entity]bool{}
		for _, it := range items {
			key := undefinedKey{it.Path, it.Line}
			if seen[key] {
				continue
			}
			if it.WhollyUnrecognized {
				if handled[it.Node] {
					continue
				}
				target := anchor
				if target == nil {
					target = ensureCatchAll()
				}
				r.authorUndefinedNode(target, it.Node, handled, seen)
				continue
			}
			seen[key] = true
			target := anchorOrNil(it.Node)
			if target == nil {
				target = anchor
			}
			if target == nil {
				target = ensureCatchAll()
			}
			r.setUndefinedContent(target, it.Attributes, it.Text)
		}
	}

	for _, link := range r.robot.Links {
		authorGroup(r.linkPrims[link.Name], urdf.CollectUndefinedIn(&link.Entity))
	}
	for _, joint := range r.robot.Joints {
		authorGroup(r.jointPrims[joint.Name], urdf.CollectUndefinedIn(&joint.Entity))
	}
	for _, mat := range r.robot.Materials {
		authorGroup(r.matPrims[mat.Name], urdf.CollectUndefinedIn(&mat.Entity))
	}
	for _, t := range r.robot.Transmissions {
		authorGroup(r.ownerPrims[&t.Entity], urdf.CollectUndefinedIn(&t.Entity))
	}

	// Whatever is left lives directly on the robot element or outside any
	// named owner.
	authorGroup(nil, urdf.CollectUndefined(r.robot))
}

// authorUndefinedNode mirrors a captured unknown element (and its nested
// unknown children) as Scope prims under parent.
func (r *run) authorUndefinedNode(parent *usd.Prim, node *urdf.Entity, handled map[*urdf.Entity]bool, seen map[undefinedKey]bool) {
	handled[node] = true
	seen[undefinedKey{node.Path, node.Line}] = true

	p := r.defineScope(parent, node.Tag)
	r.setUndefinedContent(p, node.UndefinedAttrs, node.UndefinedText)
	for _, child := range node.UndefinedChildren {
		r.authorUndefinedNode(p, child, handled, seen)
	}
}

// setUndefinedContent authors unrecognized attributes and text as
// namespaced custom attributes, in deterministic order.
func (r *run) setUndefinedContent(p *usd.Prim, attrs map[string]string, text string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.stage.SetCustomAttribute(p, "urdf:"+k, attrs[k])
	}
	if text != "" {
		r.stage.SetCustomAttribute(p, "urdf:text", text)
	}
}
