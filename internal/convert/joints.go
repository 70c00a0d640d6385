package convert

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/newton-physics/urdf-usd-converter/internal/numerics"
	"github.com/newton-physics/urdf-usd-converter/internal/urdf"
	"github.com/newton-physics/urdf-usd-converter/internal/usd"
)

// authorJoints authors the physics joints: every declared joint in
// document order, plus the synthetic world anchor when the root link is a
// real body. Mimic references may point forward in document order, so they
// resolve in a second pass once every joint prim exists.
func (r *run) authorJoints() {
	if len(r.robot.Joints) == 0 && r.root.Ghost() {
		return
	}
	r.jointScope = r.defineScope(r.rootPrim, "Joints")

	if !r.root.Ghost() {
		r.authorWorldJoint()
	}
	for _, joint := range r.robot.Joints {
		r.authorJoint(joint)
	}
	for _, joint := range r.robot.Joints {
		r.resolveMimic(joint)
	}
}

// authorWorldJoint pins a non-ghost root link to the world frame with a
// fixed joint, anchored at the link's document-space pose.
func (r *run) authorWorldJoint() {
	rootLink := r.root.Link
	world := r.linkWorld[rootLink.Name]
	name, _ := r.uniqueChild(r.jointScope, "world_joint")
	r.stage.DefineJoint(r.jointScope, usd.JointSpec{
		Name:      name,
		Kind:      usd.JointFixed,
		Body1:     r.linkPrims[rootLink.Name],
		LocalPos0: world.pos,
		LocalRot0: world.rot,
		LocalRot1: numerics.QuatIdentity(),

		ExcludeFromArticulation: true,
	})
}

func (r *run) authorJoint(joint *urdf.Joint) {
	if joint.Kind == urdf.JointFloating {
		r.rep.Warnf("joint", "joint %q: floating joints are not supported; child link %q is unconstrained",
			joint.Name, joint.Child.Link)
		return
	}

	xyz, rpy := joint.OriginOrDefault()
	origin := poseFrom(xyz, rpy)

	// A joint whose parent is a ghost root anchors against the robot prim
	// itself (the world frame) rather than a rigid body; the origin is
	// then expressed in document space.
	body0 := r.linkPrims[joint.Parent.Link]
	frame0 := origin
	if r.root.Ghost() && joint.Parent.Link == r.root.Link.Name {
		body0 = r.rootPrim
		frame0 = r.linkWorld[joint.Parent.Link].compose(origin)
	}

	spec := usd.JointSpec{
		Body0:     body0,
		Body1:     r.linkPrims[joint.Child.Link],
		LocalPos0: frame0.pos,
		LocalRot0: frame0.rot,
		LocalRot1: numerics.QuatIdentity(),
	}

	switch joint.Kind {
	case urdf.JointFixed:
		spec.Kind = usd.JointFixed

	case urdf.JointRevolute:
		spec.Kind = usd.JointRevolute
		r.alignAxis(&spec, joint.AxisOrDefault())
		if joint.Limit != nil {
			lower := numerics.Degrees(joint.Limit.Lower)
			upper := numerics.Degrees(joint.Limit.Upper)
			spec.Lower, spec.Upper = &lower, &upper
		}

	case urdf.JointContinuous:
		spec.Kind = usd.JointRevolute
		r.alignAxis(&spec, joint.AxisOrDefault())
		lower, upper := math.Inf(-1), math.Inf(1)
		spec.Lower, spec.Upper = &lower, &upper

	case urdf.JointPrismatic:
		spec.Kind = usd.JointPrismatic
		r.alignAxis(&spec, joint.AxisOrDefault())
		var lower, upper float64
		if joint.Limit != nil {
			lower, upper = joint.Limit.Lower, joint.Limit.Upper
		}
		spec.Lower, spec.Upper = &lower, &upper

	case urdf.JointPlanar:
		spec.Kind = usd.JointGeneric
		r.lockPlane(&spec, joint.AxisOrDefault())
	}

	name, rewritten := r.uniqueChild(r.jointScope, joint.Name)
	spec.Name = name
	p := r.stage.DefineJoint(r.jointScope, spec)
	if rewritten {
		r.stage.SetDisplayLabel(p, joint.Name)
	}
	r.jointPrims[joint.Name] = p
	r.ownerPrims[&joint.Entity] = p

	r.forwardJointMetadata(p, joint)
}

// alignAxis selects the joint's drive axis. Positive canonical axes map
// straight to an axis token; anything else is rotated onto local X on both
// body frames.
func (r *run) alignAxis(spec *usd.JointSpec, axis r3.Vec) {
	if token, ok := canonicalAxis(axis); ok {
		spec.Axis = token
		return
	}
	align := numerics.AlignWithX(axis)
	spec.Axis = "X"
	spec.LocalRot0 = quat.Mul(spec.LocalRot0, align)
	spec.LocalRot1 = quat.Mul(spec.LocalRot1, align)
}

// lockPlane expresses a planar joint as a generic joint with the normal
// translation and the two in-plane-normal rotations locked, leaving two
// translational and one rotational degree of freedom.
func (r *run) lockPlane(spec *usd.JointSpec, axis r3.Vec) {
	token, correction, ok := canonicalPlanarAxis(axis)
	if !ok {
		token = "X"
		correction = numerics.AlignWithX(axis)
	}
	spec.LocalRot0 = quat.Mul(spec.LocalRot0, correction)
	spec.LocalRot1 = quat.Mul(spec.LocalRot1, correction)

	var locks []usd.LimitLock
	switch token {
	case "X":
		locks = []usd.LimitLock{{Degree: "transX"}, {Degree: "rotY"}, {Degree: "rotZ"}}
	case "Y":
		locks = []usd.LimitLock{{Degree: "transY"}, {Degree: "rotX"}, {Degree: "rotZ"}}
	case "Z":
		locks = []usd.LimitLock{{Degree: "transZ"}, {Degree: "rotX"}, {Degree: "rotY"}}
	}
	spec.Locks = locks
}

// canonicalAxis matches a positive canonical direction within tolerance.
func canonicalAxis(axis r3.Vec) (string, bool) {
	n := r3.Norm(axis)
	if n < numerics.Epsilon {
		return "", false
	}
	u := r3.Scale(1/n, axis)
	switch {
	case math.Abs(u.X-1) < numerics.Epsilon:
		return "X", true
	case math.Abs(u.Y-1) < numerics.Epsilon:
		return "Y", true
	case math.Abs(u.Z-1) < numerics.Epsilon:
		return "Z", true
	}
	return "", false
}

// canonicalPlanarAxis matches signed canonical directions. Negative
// directions keep the positive axis's lock set but carry a half-turn frame
// correction so the lock bookkeeping stays in canonical-axis space.
func canonicalPlanarAxis(axis r3.Vec) (string, quat.Number, bool) {
	n := r3.Norm(axis)
	if n < numerics.Epsilon {
		return "", numerics.QuatIdentity(), false
	}
	u := r3.Scale(1/n, axis)
	switch {
	case math.Abs(u.X-1) < numerics.Epsilon:
		return "X", numerics.QuatIdentity(), true
	case math.Abs(u.X+1) < numerics.Epsilon:
		return "X", numerics.AxisAngle(r3.Vec{Y: 1}, math.Pi), true
	case math.Abs(u.Y-1) < numerics.Epsilon:
		return "Y", numerics.QuatIdentity(), true
	case math.Abs(u.Y+1) < numerics.Epsilon:
		return "Y", numerics.AxisAngle(r3.Vec{X: 1}, math.Pi), true
	case math.Abs(u.Z-1) < numerics.Epsilon:
		return "Z", numerics.QuatIdentity(), true
	case math.Abs(u.Z+1) < numerics.Epsilon:
		return "Z", numerics.AxisAngle(r3.Vec{X: 1}, math.Pi), true
	}
	return "", numerics.QuatIdentity(), false
}

// forwardJointMetadata carries the joint sub-blocks the physics schema has
// no native slot for as namespaced custom attributes.
func (r *run) forwardJointMetadata(p *usd.Prim, joint *urdf.Joint) {
	if joint.Limit != nil {
		r.stage.SetCustomFloatAttribute(p, "urdf:limit:effort", joint.Limit.Effort)
		r.stage.SetCustomFloatAttribute(p, "urdf:limit:velocity", joint.Limit.Velocity)
	}
	if c := joint.Calibration; c != nil {
		r.rep.Warnf("joint", "joint %q: calibration is not natively representable; forwarding as custom attributes", joint.Name)
		if c.ReferencePosition != nil {
			r.stage.SetCustomFloatAttribute(p, "urdf:calibration:reference_position", *c.ReferencePosition)
		}
		if c.Rising != nil {
			r.stage.SetCustomFloatAttribute(p, "urdf:calibration:rising", *c.Rising)
		}
		if c.Falling != nil {
			r.stage.SetCustomFloatAttribute(p, "urdf:calibration:falling", *c.Falling)
		}
	}
	if d := joint.Dynamics; d != nil {
		if d.Damping != nil {
			r.stage.SetCustomFloatAttribute(p, "urdf:dynamics:damping", *d.Damping)
		}
		if d.Friction != nil {
			r.stage.SetCustomFloatAttribute(p, "urdf:dynamics:friction", *d.Friction)
		}
	}
	if s := joint.SafetyController; s != nil {
		r.rep.Warnf("joint", "joint %q: safety_controller is not natively representable; forwarding as custom attributes", joint.Name)
		r.stage.SetCustomFloatAttribute(p, "urdf:safety_controller:soft_lower_limit", s.SoftLowerLimit)
		r.stage.SetCustomFloatAttribute(p, "urdf:safety_controller:soft_upper_limit", s.SoftUpperLimit)
		r.stage.SetCustomFloatAttribute(p, "urdf:safety_controller:k_position", s.KPosition)
		r.stage.SetCustomFloatAttribute(p, "urdf:safety_controller:k_velocity", s.KVelocity)
	}
}

// resolveMimic runs after every joint prim exists: a mimic may reference a
// joint declared later in the document.
func (r *run) resolveMimic(joint *urdf.Joint) {
	m := joint.Mimic
	if m == nil {
		return
	}
	p := r.jointPrims[joint.Name]
	if p == nil {
		return
	}
	ref := r.jointPrims[m.Joint]
	if ref == nil {
		r.rep.Warnf("joint", "joint %q: mimic references joint %q, which was not converted", joint.Name, m.Joint)
		return
	}
	r.rep.Warnf("joint", "joint %q: mimic is not natively representable; forwarding as custom attributes", joint.Name)
	r.stage.SetCustomAttribute(p, "urdf:mimic:joint", ref.Path())
	r.stage.SetCustomFloatAttribute(p, "urdf:mimic:multiplier", m.Multiplier)
	r.stage.SetCustomFloatAttribute(p, "urdf:mimic:offset", m.Offset)
}
