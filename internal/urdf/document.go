package urdf

import "gonum.org/v1/gonum/spatial/r3"

// MeshVariant is one unique (filename, scale) pair referenced by the
// document's visual and collision geometry.
type MeshVariant struct {
	Filename string
	Scale    r3.Vec
}

// MeshVariants returns the unique mesh references, in document order.
func (r *Robot) MeshVariants() []MeshVariant {
	var variants []MeshVariant
	add := func(g *Geometry) {
		if g == nil {
			return
		}
		mesh, ok := g.Shape.(*MeshRef)
		if !ok {
			return
		}
		for _, v := range variants {
			if v.Filename == mesh.Filename && v.Scale == mesh.Scale {
				return
			}
		}
		variants = append(variants, MeshVariant{Filename: mesh.Filename, Scale: mesh.Scale})
	}
	for _, link := range r.Links {
		for _, visual := range link.Visuals {
			add(visual.Geometry)
		}
		for _, collision := range link.Collisions {
			add(collision.Geometry)
		}
	}
	return variants
}

// MaterialDef is one resolved material definition: a global material or an
// inline visual material, deduplicated by name (global names win).
type MaterialDef struct {
	Name    string
	RGBA    [4]float64
	Texture string
	Source  *Material
}

// MaterialDefs returns the document's material definitions: globals first,
// then inline visual materials whose names are not already taken.
func (r *Robot) MaterialDefs() []MaterialDef {
	var defs []MaterialDef
	add := func(m *Material) {
		for _, d := range defs {
			if d.Name == m.Name {
				return
			}
		}
		def := MaterialDef{Name: m.Name, Source: m}
		if m.Color != nil {
			def.RGBA = m.Color.RGBA
		}
		if m.Texture != nil {
			def.Texture = m.Texture.Filename
		}
		defs = append(defs, def)
	}
	for _, m := range r.Materials {
		add(m)
	}
	for _, link := range r.Links {
		for _, visual := range link.Visuals {
			if visual.Material != nil {
				add(visual.Material)
			}
		}
	}
	return defs
}
