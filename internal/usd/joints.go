package usd

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// JointKind selects the physics joint prim type.
type JointKind int

const (
	JointFixed JointKind = iota
	JointRevolute
	JointPrismatic
	// JointGeneric is the untyped joint used for planar joints, which are
	// expressed as a generic joint plus per-degree limit locks.
	JointGeneric
)

func (k JointKind) primType() string {
	switch k {
	case JointFixed:
		return "PhysicsFixedJoint"
	case JointRevolute:
		return "PhysicsRevoluteJoint"
	case JointPrismatic:
		return "PhysicsPrismaticJoint"
	default:
		return "PhysicsJoint"
	}
}

// LimitLock pins one degree of freedom of a generic joint to a range.
// Degree names follow the limit schema instance names: "transX", "transY",
// "transZ", "rotX", "rotY", "rotZ".
type LimitLock struct {
	Degree string
	Low    float64
	High   float64
}

// JointSpec is everything needed to author one physics joint prim.
// Body0 may be nil for a world-anchored joint (the relationship is then
// omitted and the joint binds Body1 to the world frame).
type JointSpec struct {
	Name string
	Kind JointKind

	Body0 *Prim
	Body1 *Prim

	LocalPos0 r3.Vec
	LocalRot0 quat.Number
	LocalPos1 r3.Vec
	LocalRot1 quat.Number

	// Axis is "X", "Y", or "Z" for revolute and prismatic joints.
	Axis string

	// Lower/Upper author the drive limits when non-nil. Revolute limits
	// are in degrees, prismatic in meters; ±inf marks an unlimited joint.
	Lower *float64
	Upper *float64

	Locks []LimitLock

	// ExcludeFromArticulation detaches the joint from articulation
	// solving; used for loop-closing or world-anchoring extras.
	ExcludeFromArticulation bool
}

// DefineJoint authors a physics joint prim under parent.
func (s *Stage) DefineJoint(parent *Prim, spec JointSpec) *Prim {
	p := s.DefinePrim(parent, spec.Name, spec.Kind.primType())

	if spec.Body0 != nil {
		p.AddRel("physics:body0", spec.Body0)
	}
	if spec.Body1 != nil {
		p.AddRel("physics:body1", spec.Body1)
	}
	p.SetAttr("physics:localPos0", "point3f", spec.LocalPos0)
	p.SetAttr("physics:localRot0", "quatf", spec.LocalRot0)
	p.SetAttr("physics:localPos1", "point3f", spec.LocalPos1)
	p.SetAttr("physics:localRot1", "quatf", spec.LocalRot1)

	if spec.Axis != "" {
		p.SetUniformAttr("physics:axis", "token", Token(spec.Axis))
	}
	if spec.Lower != nil {
		p.SetAttr("physics:lowerLimit", "float", *spec.Lower)
	}
	if spec.Upper != nil {
		p.SetAttr("physics:upperLimit", "float", *spec.Upper)
	}
	for _, lock := range spec.Locks {
		p.ApplyAPI("PhysicsLimitAPI:" + lock.Degree)
		p.SetAttr("limit:"+lock.Degree+":physics:low", "float", lock.Low)
		p.SetAttr("limit:"+lock.Degree+":physics:high", "float", lock.High)
	}
	if spec.ExcludeFromArticulation {
		p.SetAttr("physics:excludeFromArticulation", "bool", true)
	}
	return p
}

// DefinePhysicsScene authors the stage-level physics scene prim.
func (s *Stage) DefinePhysicsScene(name string) *Prim {
	p := s.DefinePrim(nil, name, "PhysicsScene")
	p.SetAttr("physics:gravityDirection", "float3", r3.Vec{Z: -1})
	p.SetAttr("physics:gravityMagnitude", "float", 9.81)
	return p
}
