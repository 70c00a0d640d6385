package convert

import (
	"errors"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/newton-physics/urdf-usd-converter/internal/kinematics"
	"github.com/newton-physics/urdf-usd-converter/internal/meshloader"
	"github.com/newton-physics/urdf-usd-converter/internal/numerics"
	"github.com/newton-physics/urdf-usd-converter/internal/urdf"
	"github.com/newton-physics/urdf-usd-converter/internal/usd"
)

var unitScale = r3.Vec{X: 1, Y: 1, Z: 1}

// authorLinks walks the kinematic tree and authors one Xform per link,
// flat under the robot prim, posed at the link's accumulated document-space
// transform. Every link except a ghost root becomes a rigid body; the
// first non-ghost link in the walk becomes the articulation root.
func (r *run) authorLinks() {
	rootGhost := r.root.Ghost()
	articulated := false

	var walk func(n *kinematics.Node, world pose)
	walk = func(n *kinematics.Node, world pose) {
		p := r.define(r.rootPrim, n.Link.Name)
		r.linkPrims[n.Link.Name] = p
		r.ownerPrims[&n.Link.Entity] = p
		r.linkWorld[n.Link.Name] = world
		r.stage.SetLocalTransform(p, world.pos, world.rot, unitScale)

		ghostRoot := n == r.root && rootGhost
		if !ghostRoot {
			r.stage.ApplyRigidBody(p)
			if !articulated {
				articulated = true
				r.stage.ApplyArticulationRoot(p)
			}
			r.authorInertia(p, n.Link)
		}
		r.authorGeometry(p, n.Link)

		for _, e := range n.Edges {
			xyz, rpy := e.Joint.OriginOrDefault()
			walk(e.Child, world.compose(poseFrom(xyz, rpy)))
		}
	}
	walk(r.root, pose{rot: numerics.QuatIdentity()})
}

// authorInertia converts the link's inertial block into mass properties.
// The principal-axes orientation composes the inertial-frame rotation with
// the tensor's eigenbasis; the center of mass is the inertial origin.
func (r *run) authorInertia(p *usd.Prim, link *urdf.Link) {
	in := link.Inertial
	if in == nil {
		return
	}
	props := usd.Inertia{}
	if in.Mass != nil {
		mass := in.Mass.Value
		props.Mass = &mass
	}
	originRot := numerics.QuatIdentity()
	if in.Origin != nil {
		com := in.Origin.XYZ
		props.CenterOfMass = &com
		originRot = numerics.FromRPY(in.Origin.RPY.X, in.Origin.RPY.Y, in.Origin.RPY.Z)
	}
	if in.Inertia != nil {
		axes, diagonal, err := numerics.ExtractInertia(in.Inertia.Tensor)
		if err != nil {
			r.rep.Warnf("inertia", "link %q: %v", link.Name, err)
		} else {
			oriented := quat.Mul(originRot, axes)
			props.PrincipalAxes = &oriented
			props.Diagonal = &diagonal
		}
	}
	r.stage.ApplyInertia(p, props)
}

// authorGeometry authors the link's visual and collision entries as
// geometry prims under the link prim.
func (r *run) authorGeometry(p *usd.Prim, link *urdf.Link) {
	for _, visual := range link.Visuals {
		g := r.authorShape(p, link, visual.Name, "Visual", visual.Origin, visual.Geometry)
		if g == nil {
			continue
		}
		r.ownerPrims[&visual.Entity] = g
		if visual.Material != nil {
			r.bindVisualMaterial(g, visual.Material)
		}
	}
	for _, collision := range link.Collisions {
		g := r.authorShape(p, link, collision.Name, "Collision", collision.Origin, collision.Geometry)
		if g == nil {
			continue
		}
		r.ownerPrims[&collision.Entity] = g
		r.stage.SetPurposeGuide(g)
		r.stage.ApplyCollision(g, true)
	}
}

// authorShape authors one geometry prim. Mesh resources that fail to
// resolve or decode are skipped with a warning; the rest of the link
// converts normally.
func (r *run) authorShape(parent *usd.Prim, link *urdf.Link, name, fallback string, origin *urdf.Pose, geom *urdf.Geometry) *usd.Prim {
	if name == "" {
		name = fallback
	}

	var shape usd.Shape
	scale := unitScale
	switch s := geom.Shape.(type) {
	case *urdf.Box:
		shape = usd.Cube{}
		scale = s.Size
	case *urdf.Sphere:
		shape = usd.Sphere{Radius: s.Radius}
	case *urdf.Cylinder:
		shape = usd.Cylinder{Radius: s.Radius, Height: s.Length}
	case *urdf.MeshRef:
		data := r.loadMesh(link, s)
		if data == nil {
			return nil
		}
		shape = usd.Mesh{
			Points:            data.Points,
			FaceVertexCounts:  data.FaceVertexCounts,
			FaceVertexIndices: data.FaceVertexIndices,
			Normals:           data.Normals,
		}
		scale = s.Scale
	default:
		return nil
	}

	primName, rewritten := r.uniqueChild(parent, name)
	g := r.stage.DefineShape(parent, primName, shape)
	if rewritten {
		r.stage.SetDisplayLabel(g, name)
	}

	var xyz, rot = r3.Vec{}, numerics.QuatIdentity()
	if origin != nil {
		xyz = origin.XYZ
		rot = numerics.FromRPY(origin.RPY.X, origin.RPY.Y, origin.RPY.Z)
	}
	r.stage.SetLocalTransform(g, xyz, rot, scale)
	return g
}

// loadMesh resolves and decodes a mesh reference through the per-run
// cache, so each (filename, scale) variant is decoded at most once.
func (r *run) loadMesh(link *urdf.Link, ref *urdf.MeshRef) *meshloader.Data {
	key := urdf.MeshVariant{Filename: ref.Filename, Scale: ref.Scale}
	if data, ok := r.meshCache[key]; ok {
		return data
	}

	path, err := r.resolver.Resolve(ref.Filename, r.contextDir)
	if err != nil {
		r.rep.Warnf("mesh", "link %q: %v", link.Name, err)
		r.meshCache[key] = nil
		return nil
	}
	data, err := meshloader.Load(path)
	if err != nil {
		if errors.Is(err, meshloader.ErrUnsupportedFormat) {
			r.rep.Warnf("mesh", "link %q: %s: %v", link.Name, ref.Filename, err)
		} else {
			r.rep.Warnf("mesh", "link %q: loading %s: %v", link.Name, ref.Filename, err)
		}
		r.meshCache[key] = nil
		return nil
	}
	r.meshCache[key] = data
	return data
}
