package convert

import (
	"github.com/newton-physics/urdf-usd-converter/internal/urdf"
	"github.com/newton-physics/urdf-usd-converter/internal/usd"
)

// authorMaterials authors one Material prim per resolved material
// definition under a Materials scope. Global definitions win name clashes
// with inline visual materials; visuals then bind by name.
func (r *run) authorMaterials() {
	defs := r.robot.MaterialDefs()
	if len(defs) == 0 {
		return
	}
	scope := r.defineScope(r.rootPrim, "Materials")
	for _, def := range defs {
		texture := def.Texture
		if texture != "" {
			resolved, err := r.resolver.Resolve(texture, r.contextDir)
			if err != nil {
				r.rep.Warnf("material", "material %q: %v", def.Name, err)
				texture = ""
			} else {
				texture = resolved
			}
		}
		name, rewritten := r.uniqueChild(scope, def.Name)
		p := r.stage.DefineMaterial(scope, name, def.RGBA, texture)
		if rewritten {
			r.stage.SetDisplayLabel(p, def.Name)
		}
		r.matPrims[def.Name] = p
		r.ownerPrims[&def.Source.Entity] = p
	}
}

// bindVisualMaterial binds the named material to a visual's geometry prim.
// Dangling references are caught at parse time; a miss here means an
// inline material lost its name to a global and is still present by name.
func (r *run) bindVisualMaterial(g *usd.Prim, mat *urdf.Material) {
	p := r.matPrims[mat.Name]
	if p == nil {
		r.rep.Warnf("material", "visual references unknown material %q", mat.Name)
		return
	}
	r.stage.BindMaterial(g, p)
}
