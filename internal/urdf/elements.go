package urdf

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/newton-physics/urdf-usd-converter/internal/numerics"
)

// Entity is the base of every typed element in the document model. It keeps
// the source tag, the structural path ("/robot/link/visual"), the 1-based
// source line, and anything the schema registry did not recognize.
type Entity struct {
	Tag  string
	Path string
	Line int

	// Unrecognized content, preserved losslessly.
	UndefinedAttrs    map[string]string
	UndefinedChildren []*Entity
	UndefinedText     string

	// Recognized typed children in document order; used by the
	// undefined-content collection walk.
	children []element
}

func (e *Entity) base() *Entity { return e }

// element is implemented by every typed entity.
type element interface {
	base() *Entity
}

func (e *Entity) addUndefinedAttr(name, value string) {
	if e.UndefinedAttrs == nil {
		e.UndefinedAttrs = map[string]string{}
	}
	e.UndefinedAttrs[name] = value
}

// hasUndefined reports whether the entity itself carries unrecognized
// attributes or text.
func (e *Entity) hasUndefined() bool {
	return len(e.UndefinedAttrs) > 0 || e.UndefinedText != ""
}

// JointKind enumerates the URDF joint kinds.
type JointKind string

const (
	JointFixed      JointKind = "fixed"
	JointRevolute   JointKind = "revolute"
	JointContinuous JointKind = "continuous"
	JointPrismatic  JointKind = "prismatic"
	JointFloating   JointKind = "floating"
	JointPlanar     JointKind = "planar"
)

var jointKinds = map[string]JointKind{
	"fixed":      JointFixed,
	"revolute":   JointRevolute,
	"continuous": JointContinuous,
	"prismatic":  JointPrismatic,
	"floating":   JointFloating,
	"planar":     JointPlanar,
}

// Pose is an origin transform: translation plus fixed-axis roll/pitch/yaw.
type Pose struct {
	Entity
	XYZ r3.Vec
	RPY r3.Vec
}

// Color is a flat RGBA color.
type Color struct {
	Entity
	RGBA [4]float64
}

// Texture references an image file.
type Texture struct {
	Entity
	Filename string
}

// Material is a named material definition or reference. Global materials
// (declared under robot) define color/texture; visual-scoped materials may
// be pure references resolved against the global set.
type Material struct {
	Entity
	Name    string
	Color   *Color
	Texture *Texture
}

// Mass is a link's mass in kilograms.
type Mass struct {
	Entity
	Value float64
}

// Inertia is the symmetric 3x3 inertia tensor.
type Inertia struct {
	Entity
	Tensor numerics.InertiaTensor
}

// Inertial carries a link's inertial frame, mass and inertia tensor.
type Inertial struct {
	Entity
	Origin  *Pose
	Mass    *Mass
	Inertia *Inertia
}

// Shape is the closed set of geometry variants.
type Shape interface {
	element
	isShape()
}

type Box struct {
	Entity
	Size r3.Vec
}

type Sphere struct {
	Entity
	Radius float64
}

type Cylinder struct {
	Entity
	Radius float64
	Length float64
}

type MeshRef struct {
	Entity
	Filename string
	Scale    r3.Vec
}

func (*Box) isShape()      {}
func (*Sphere) isShape()   {}
func (*Cylinder) isShape() {}
func (*MeshRef) isShape()  {}

// Geometry wraps exactly one shape variant.
type Geometry struct {
	Entity
	Shape Shape
}

// Verbose is the collision verbose flag some URDF exporters emit.
type Verbose struct {
	Entity
	Value string
}

// Visual is one renderable geometry entry on a link.
type Visual struct {
	Entity
	Name     string
	Origin   *Pose
	Geometry *Geometry
	Material *Material
}

// Collision is one collision geometry entry on a link.
type Collision struct {
	Entity
	Name     string
	Origin   *Pose
	Geometry *Geometry
	Verbose  *Verbose
}

// Link is a rigid body in the kinematic structure.
type Link struct {
	Entity
	Name       string
	Inertial   *Inertial
	Visuals    []*Visual
	Collisions []*Collision
}

// ParentRef and ChildRef name the links a joint connects.
type ParentRef struct {
	Entity
	Link string
}

type ChildRef struct {
	Entity
	Link string
}

// Axis is a joint's axis of motion; defaults to +X.
type Axis struct {
	Entity
	XYZ r3.Vec
}

// Calibration holds reference positions for joint calibration. Fields are
// pointers because only present attributes are forwarded downstream.
type Calibration struct {
	Entity
	ReferencePosition *float64
	Rising            *float64
	Falling           *float64
}

// Dynamics holds joint damping and friction.
type Dynamics struct {
	Entity
	Damping  *float64
	Friction *float64
}

// Limit holds joint position, effort, and velocity limits.
type Limit struct {
	Entity
	Lower    float64
	Upper    float64
	Effort   float64
	Velocity float64
}

// SafetyController holds the joint safety-controller parameters.
type SafetyController struct {
	Entity
	SoftLowerLimit float64
	SoftUpperLimit float64
	KPosition      float64
	KVelocity      float64
}

// Mimic defines this joint's motion as an affine function of another
// joint's motion.
type Mimic struct {
	Entity
	Joint      string
	Multiplier float64
	Offset     float64
}

// Joint is a constraint connecting a parent link and a child link.
type Joint struct {
	Entity
	Name             string
	Kind             JointKind
	Origin           *Pose
	Parent           *ParentRef
	Child            *ChildRef
	Axis             *Axis
	Calibration      *Calibration
	Dynamics         *Dynamics
	Limit            *Limit
	SafetyController *SafetyController
	Mimic            *Mimic
}

// AxisOrDefault returns the joint axis, defaulting to +X.
func (j *Joint) AxisOrDefault() r3.Vec {
	if j.Axis == nil {
		return r3.Vec{X: 1}
	}
	return j.Axis.XYZ
}

// OriginOrDefault returns the joint origin, defaulting to identity.
func (j *Joint) OriginOrDefault() (xyz, rpy r3.Vec) {
	if j.Origin == nil {
		return r3.Vec{}, r3.Vec{}
	}
	return j.Origin.XYZ, j.Origin.RPY
}

// Transmission sub-elements, carried through as typed data and forwarded as
// opaque metadata (the output schema has no native representation).
type TransmissionJoint struct {
	Entity
	Name              string
	HardwareInterface *HardwareInterface
}

type TransmissionActuator struct {
	Entity
	Name                string
	MechanicalReduction *MechanicalReduction
	HardwareInterface   *HardwareInterface
}

type HardwareInterface struct {
	Entity
	Text string
}

type MechanicalReduction struct {
	Entity
	Value float64
}

type TransmissionType struct {
	Entity
	Text string
}

type Transmission struct {
	Entity
	Name     string
	Type     *TransmissionType
	Joint    *TransmissionJoint
	Actuator *TransmissionActuator
}

// Robot is the parsed document: the root element and its ordered
// collections. Link, joint, material, and transmission names are unique
// within the document (validated at parse time).
type Robot struct {
	Entity
	Name    string
	Version string

	Links         []*Link
	Materials     []*Material
	Joints        []*Joint
	Transmissions []*Transmission
}

// LinkByName returns the named link, or nil.
func (r *Robot) LinkByName(name string) *Link {
	for _, l := range r.Links {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// MaterialByName returns the named global material, or nil.
func (r *Robot) MaterialByName(name string) *Material {
	for _, m := range r.Materials {
		if m.Name == name {
			return m
		}
	}
	return nil
}
