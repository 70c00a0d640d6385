// Package kinematics builds the rooted link tree from a document's flat
// joint list. The hierarchy owns references into the document's links and
// joints; it never copies or mutates them.
package kinematics

import (
	"fmt"

	"github.com/newton-physics/urdf-usd-converter/internal/urdf"
)

// Edge is one parent→child connection: the child subtree and the joint
// that attaches it.
type Edge struct {
	Child *Node
	Joint *urdf.Joint
}

// Node wraps a link with its resolved children, in document (joint) order.
// Immutable after Build.
type Node struct {
	Link  *urdf.Link
	Edges []Edge
}

// Ghost reports whether the node's link carries no inertial, visual, or
// collision data. A ghost root anchors the tree without being a body
// itself, which changes rigid-body and joint emission downstream.
func (n *Node) Ghost() bool {
	l := n.Link
	return l.Inertial == nil && len(l.Visuals) == 0 && len(l.Collisions) == 0
}

// Walk visits the subtree depth-first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, e := range n.Edges {
		e.Child.Walk(fn)
	}
}

// Build converts the document's joints into a rooted tree of links. The
// root is the unique link that never appears as a joint child; with zero
// joints the first declared link is the root by convention (a single rigid
// body). A joint graph where no link qualifies is cyclic and fails.
func Build(robot *urdf.Robot) (*Node, error) {
	if len(robot.Joints) == 0 {
		if len(robot.Links) == 0 {
			return nil, fmt.Errorf("no root link found: the document declares no links")
		}
		return &Node{Link: robot.Links[0]}, nil
	}

	isChild := map[string]bool{}
	for _, joint := range robot.Joints {
		isChild[joint.Child.Link] = true
	}

	var rootName string
	rootSeen := map[string]bool{}
	rootCount := 0
	for _, joint := range robot.Joints {
		parent := joint.Parent.Link
		if !isChild[parent] && !rootSeen[parent] {
			rootSeen[parent] = true
			if rootCount == 0 {
				rootName = parent
			}
			rootCount++
		}
	}
	if rootCount == 0 {
		return nil, fmt.Errorf("no root link found: the joint structure is a loop")
	}
	if rootCount > 1 {
		return nil, fmt.Errorf("no unique root link: multiple links are never a joint child")
	}

	nodes := map[string]*Node{}
	nodeFor := func(link *urdf.Link) *Node {
		if n, ok := nodes[link.Name]; ok {
			return n
		}
		n := &Node{Link: link}
		nodes[link.Name] = n
		return n
	}

	for _, joint := range robot.Joints {
		parent := nodeFor(robot.LinkByName(joint.Parent.Link))
		child := nodeFor(robot.LinkByName(joint.Child.Link))
		parent.Edges = append(parent.Edges, Edge{Child: child, Joint: joint})
	}
	return nodes[rootName], nil
}
