package usd

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Shape is the sum of authorable geometry prims.
type Shape interface{ isShape() }

// Cube is a unit cube; box dimensions are carried by the prim's scale op.
type Cube struct{}

// Sphere is a radius-parameterized sphere.
type Sphere struct {
	Radius float64
}

// Cylinder is a Z-axis cylinder.
type Cylinder struct {
	Radius float64
	Height float64
}

// Mesh is explicit polygonal geometry.
type Mesh struct {
	Points            []r3.Vec
	FaceVertexCounts  []int
	FaceVertexIndices []int
	Normals           []r3.Vec
}

func (Cube) isShape()     {}
func (Sphere) isShape()   {}
func (Cylinder) isShape() {}
func (Mesh) isShape()     {}

// DefineShape authors a geometry prim under parent.
func (s *Stage) DefineShape(parent *Prim, name string, shape Shape) *Prim {
	switch sh := shape.(type) {
	case Cube:
		p := s.DefinePrim(parent, name, "Cube")
		p.SetAttr("size", "double", float64(1))
		return p
	case Sphere:
		p := s.DefinePrim(parent, name, "Sphere")
		p.SetAttr("radius", "double", sh.Radius)
		return p
	case Cylinder:
		p := s.DefinePrim(parent, name, "Cylinder")
		p.SetAttr("radius", "double", sh.Radius)
		p.SetAttr("height", "double", sh.Height)
		p.SetUniformAttr("axis", "token", Token("Z"))
		return p
	case Mesh:
		p := s.DefinePrim(parent, name, "Mesh")
		p.SetAttr("points", "point3f[]", sh.Points)
		p.SetAttr("faceVertexCounts", "int[]", sh.FaceVertexCounts)
		p.SetAttr("faceVertexIndices", "int[]", sh.FaceVertexIndices)
		if len(sh.Normals) > 0 {
			p.SetAttr("normals", "normal3f[]", sh.Normals)
		}
		p.SetUniformAttr("subdivisionScheme", "token", Token("none"))
		return p
	default:
		panic("usd: unknown shape")
	}
}

// SetPurposeGuide marks a prim as non-rendering helper geometry.
func (s *Stage) SetPurposeGuide(p *Prim) {
	p.SetUniformAttr("purpose", "token", Token("guide"))
}

// DefineMaterial authors a preview-surface material: a Material prim with
// a Shader child wired to the surface output.
func (s *Stage) DefineMaterial(parent *Prim, name string, rgba [4]float64, texture string) *Prim {
	mat := s.DefinePrim(parent, name, "Material")
	shader := s.DefinePrim(mat, "Shader", "Shader")
	shader.SetUniformAttr("info:id", "token", Token("UsdPreviewSurface"))
	shader.SetAttr("inputs:diffuseColor", "color3f", r3.Vec{X: rgba[0], Y: rgba[1], Z: rgba[2]})
	shader.SetAttr("inputs:opacity", "float", rgba[3])
	if texture != "" {
		mat.SetAttr("inputs:diffuseTexture", "asset", Raw("@"+texture+"@"))
	}
	mat.SetAttr("outputs:surface.connect", "token", Raw("<"+mat.Path()+"/Shader.outputs:surface>"))
	return mat
}

// BindMaterial binds mat to geometry prim p.
func (s *Stage) BindMaterial(p, mat *Prim) {
	p.ApplyAPI("MaterialBindingAPI")
	p.AddRel("material:binding", mat)
}
