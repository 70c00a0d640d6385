// Package usd is the scene-authoring sink the conversion feeds into: an
// in-memory stage of typed prims with attributes, relationships, applied
// API schemas, and display names, plus a .usda text serializer. It mirrors
// the authoring surface the converter needs from UsdGeom/UsdPhysics and
// nothing more.
package usd

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Token is a serialized token value (rendered with token typing, not as a
// plain string).
type Token string

// Raw is serialized verbatim, for value syntaxes the writer does not own
// (connection paths, asset references).
type Raw string

// Attr is one authored attribute. Values are rendered by Go type; TypeName
// is the declared scene-graph value type.
type Attr struct {
	Name     string
	TypeName string
	Value    any
	Custom   bool
	Uniform  bool
}

// Rel is a relationship to other prims.
type Rel struct {
	Name    string
	Targets []*Prim
}

// Prim is one node of the stage hierarchy.
type Prim struct {
	name        string
	typeName    string
	parent      *Prim
	children    []*Prim
	attrs       []Attr
	rels        []Rel
	apiSchemas  []string
	displayName string
}

func (p *Prim) Name() string     { return p.name }
func (p *Prim) TypeName() string { return p.typeName }
func (p *Prim) Parent() *Prim    { return p.parent }

// Path returns the absolute prim path, e.g. "/Robot/Geometry/link1".
func (p *Prim) Path() string {
	if p.parent == nil {
		return ""
	}
	return p.parent.Path() + "/" + p.name
}

func (p *Prim) Children() []*Prim { return p.children }

// Child returns the named direct child, or nil.
func (p *Prim) Child(name string) *Prim {
	for _, c := range p.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// SetAttr authors (or overwrites) an attribute.
func (p *Prim) SetAttr(name, typeName string, value any) {
	p.setAttr(Attr{Name: name, TypeName: typeName, Value: value})
}

// SetUniformAttr authors an attribute with uniform variability.
func (p *Prim) SetUniformAttr(name, typeName string, value any) {
	p.setAttr(Attr{Name: name, TypeName: typeName, Value: value, Uniform: true})
}

func (p *Prim) setAttr(a Attr) {
	for i := range p.attrs {
		if p.attrs[i].Name == a.Name {
			p.attrs[i] = a
			return
		}
	}
	p.attrs = append(p.attrs, a)
}

// Attr returns the named attribute.
func (p *Prim) Attr(name string) (Attr, bool) {
	for _, a := range p.attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// AddRel authors a relationship.
func (p *Prim) AddRel(name string, targets ...*Prim) {
	p.rels = append(p.rels, Rel{Name: name, Targets: targets})
}

// Rel returns the named relationship.
func (p *Prim) Rel(name string) (Rel, bool) {
	for _, r := range p.rels {
		if r.Name == name {
			return r, true
		}
	}
	return Rel{}, false
}

// ApplyAPI records an applied API schema, once.
func (p *Prim) ApplyAPI(schema string) {
	if !p.HasAPI(schema) {
		p.apiSchemas = append(p.apiSchemas, schema)
	}
}

// HasAPI reports whether schema has been applied.
func (p *Prim) HasAPI(schema string) bool {
	for _, s := range p.apiSchemas {
		if s == schema {
			return true
		}
	}
	return false
}

// DisplayName returns the prim's display label ("" when the prim name is
// the source spelling already).
func (p *Prim) DisplayName() string { return p.displayName }

// Stage is the in-memory scene. The pseudo-root is unnamed; real prims
// hang beneath it.
type Stage struct {
	pseudoRoot  *Prim
	defaultPrim *Prim

	UpAxis        string
	MetersPerUnit float64
	Doc           string
	Comment       string
}

func NewStage() *Stage {
	return &Stage{
		pseudoRoot:    &Prim{},
		UpAxis:        "Z",
		MetersPerUnit: 1,
	}
}

// PseudoRoot returns the stage's unnamed root.
func (s *Stage) PseudoRoot() *Prim { return s.pseudoRoot }

// DefaultPrim returns the stage's default prim.
func (s *Stage) DefaultPrim() *Prim { return s.defaultPrim }

func (s *Stage) SetDefaultPrim(p *Prim) { s.defaultPrim = p }

// PrimAtPath resolves an absolute path, or nil.
func (s *Stage) PrimAtPath(path string) *Prim {
	p := s.pseudoRoot
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		if p = p.Child(part); p == nil {
			return nil
		}
	}
	return p
}

// DefinePrim creates a child prim under parent (the pseudo-root when
// parent is nil). Defining an already-defined name is an authoring bug and
// panics; the identifier uniquifier exists to prevent it.
func (s *Stage) DefinePrim(parent *Prim, name, typeName string) *Prim {
	if parent == nil {
		parent = s.pseudoRoot
	}
	if parent.Child(name) != nil {
		panic(fmt.Sprintf("usd: prim %q already defined under %q", name, parent.Path()))
	}
	p := &Prim{name: name, typeName: typeName, parent: parent}
	parent.children = append(parent.children, p)
	return p
}

// DefineTransformNode creates an Xform prim.
func (s *Stage) DefineTransformNode(parent *Prim, name string) *Prim {
	return s.DefinePrim(parent, name, "Xform")
}

// DefineScope creates a Scope prim.
func (s *Stage) DefineScope(parent *Prim, name string) *Prim {
	return s.DefinePrim(parent, name, "Scope")
}

// SetDisplayLabel records the original human-readable spelling of a prim
// whose name had to be rewritten.
func (s *Stage) SetDisplayLabel(p *Prim, label string) {
	p.displayName = label
}

// SetCustomAttribute authors a namespaced custom string attribute.
func (s *Stage) SetCustomAttribute(p *Prim, name, value string) {
	p.setAttr(Attr{Name: name, TypeName: "string", Value: value, Custom: true})
}

// SetCustomFloatAttribute authors a namespaced custom float attribute.
func (s *Stage) SetCustomFloatAttribute(p *Prim, name string, value float64) {
	p.setAttr(Attr{Name: name, TypeName: "float", Value: value, Custom: true})
}

// SetLocalTransform authors translate/orient/scale transform ops on an
// Xformable prim.
func (s *Stage) SetLocalTransform(p *Prim, translate r3.Vec, orient quat.Number, scale r3.Vec) {
	p.SetAttr("xformOp:translate", "double3", translate)
	p.SetAttr("xformOp:orient", "quatf", orient)
	p.SetAttr("xformOp:scale", "float3", scale)
	p.SetUniformAttr("xformOpOrder", "token[]", []Token{
		"xformOp:translate", "xformOp:orient", "xformOp:scale",
	})
}

// ApplyRigidBody marks the prim as a dynamic rigid body.
func (s *Stage) ApplyRigidBody(p *Prim) {
	p.ApplyAPI("PhysicsRigidBodyAPI")
}

// ApplyArticulationRoot marks the prim as the articulation root.
func (s *Stage) ApplyArticulationRoot(p *Prim) {
	p.ApplyAPI("PhysicsArticulationRootAPI")
}

// Inertia carries the optional mass properties for ApplyInertia; nil
// fields are left unauthored.
type Inertia struct {
	Mass          *float64
	CenterOfMass  *r3.Vec
	PrincipalAxes *quat.Number
	Diagonal      *r3.Vec
}

// ApplyInertia authors the mass properties on a body prim.
func (s *Stage) ApplyInertia(p *Prim, in Inertia) {
	p.ApplyAPI("PhysicsMassAPI")
	if in.Mass != nil {
		p.SetAttr("physics:mass", "float", *in.Mass)
	}
	if in.CenterOfMass != nil {
		p.SetAttr("physics:centerOfMass", "point3f", *in.CenterOfMass)
	}
	if in.PrincipalAxes != nil {
		p.SetAttr("physics:principalAxes", "quatf", *in.PrincipalAxes)
	}
	if in.Diagonal != nil {
		p.SetAttr("physics:diagonalInertia", "float3", *in.Diagonal)
	}
}

// ApplyCollision enables collision on a geometry prim. Mesh geometry also
// gets the mesh-collision approximation set to use the mesh as-is.
func (s *Stage) ApplyCollision(p *Prim, enabled bool) {
	p.ApplyAPI("PhysicsCollisionAPI")
	p.SetAttr("physics:collisionEnabled", "bool", enabled)
	if p.typeName == "Mesh" {
		p.ApplyAPI("PhysicsMeshCollisionAPI")
		p.SetAttr("physics:approximation", "token", Token("none"))
	}
}
