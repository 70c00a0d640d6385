package urdf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ParseFile reads and parses a URDF document. A missing or unreadable file
// is an I/O failure, not a parse failure.
func ParseFile(path string) (*Robot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	robot, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return robot, nil
}

// Parse parses a URDF document from raw bytes into the typed document
// model. All structural violations surface as *StructuralError carrying the
// offending tag and line; on error no partial document is returned.
func Parse(data []byte) (*Robot, error) {
	root, err := buildXMLTree(data)
	if err != nil {
		return nil, err
	}
	if root.tag != "robot" {
		return nil, structuralf(root.tag, root.line, "the root element must be 'robot'")
	}

	el, err := parseElement(root, nil, "", "")
	if err != nil {
		return nil, err
	}
	robot := el.(*Robot)
	if err := validate(robot); err != nil {
		return nil, err
	}
	return robot, nil
}

// parseElement resolves one raw node against the schema registry, builds
// the typed entity, recurses into children, and attaches the result to its
// parent. parent is nil only for the root robot element.
func parseElement(n *xmlNode, parent element, parentTag, parentPath string) (element, error) {
	path := parentPath + "/" + n.tag
	parentType := EntityInvalid
	if parent != nil {
		parentType = entityTypeOf(parent)
	}

	// Children of a geometry wrapper must be one of the shape variants,
	// known tag or not.
	if parentType == EntityGeometry {
		switch n.tag {
		case "box", "sphere", "cylinder", "mesh":
		default:
			return nil, structuralf(n.tag, n.line, "invalid geometry type")
		}
	}

	// Unknown tags are captured losslessly, subtree included. Children of
	// captured elements are never matched against the registry again.
	if !IsKnownTag(n.tag) {
		captured := captureUndefined(n, path)
		parent.base().UndefinedChildren = append(parent.base().UndefinedChildren, captured)
		return captured, nil
	}

	et := ResolveEntityType(n.tag, parentTag)
	if et == EntityInvalid {
		return nil, structuralf(n.tag, n.line, "invalid element type: this uses a reserved tag, but in the wrong place")
	}

	el, err := buildEntity(et, n, path)
	if err != nil {
		return nil, err
	}

	for _, child := range n.children {
		if _, err := parseElement(child, el, n.tag, path); err != nil {
			return nil, err
		}
	}

	if parent != nil {
		if err := attach(parent, parentType, el, n); err != nil {
			return nil, err
		}
		parent.base().children = append(parent.base().children, el)
	}

	// Whitelisted attributes were consumed above; everything else is
	// preserved rather than discarded.
	for _, a := range n.attrs {
		if !IsKnownAttribute(n.tag, a.Name.Local) {
			el.base().addUndefinedAttr(a.Name.Local, a.Value)
		}
	}
	if !consumesText(et) {
		if t := trimmedText(n); t != "" {
			el.base().UndefinedText = t
		}
	}
	return el, nil
}

// captureUndefined copies a node and its whole subtree into the
// undefined-content side channel.
func captureUndefined(n *xmlNode, path string) *Entity {
	e := &Entity{Tag: n.tag, Path: path, Line: n.line}
	for _, a := range n.attrs {
		e.addUndefinedAttr(a.Name.Local, a.Value)
	}
	if t := trimmedText(n); t != "" {
		e.UndefinedText = t
	}
	for _, c := range n.children {
		e.UndefinedChildren = append(e.UndefinedChildren, captureUndefined(c, path+"/"+c.tag))
	}
	return e
}

// buildEntity constructs the typed entity for a resolved node, converting
// and validating its attributes.
func buildEntity(et EntityType, n *xmlNode, path string) (element, error) {
	ent := Entity{Tag: n.tag, Path: path, Line: n.line}

	switch et {
	case EntityRobot:
		name, err := requiredName(n)
		if err != nil {
			return nil, err
		}
		version := "1.0"
		if v, ok := n.attr("version"); ok {
			version = v
		}
		return &Robot{Entity: ent, Name: name, Version: version}, nil

	case EntityLink:
		name, err := requiredName(n)
		if err != nil {
			return nil, err
		}
		return &Link{Entity: ent, Name: name}, nil

	case EntityJoint:
		name, err := requiredName(n)
		if err != nil {
			return nil, err
		}
		kindRaw, ok := n.attr("type")
		if !ok {
			return nil, structuralf(n.tag, n.line, "type is required")
		}
		kind, ok := jointKinds[kindRaw]
		if !ok {
			return nil, structuralf(n.tag, n.line, "invalid joint type: %s", kindRaw)
		}
		return &Joint{Entity: ent, Name: name, Kind: kind}, nil

	case EntityMaterialGlobal, EntityMaterial:
		name, err := requiredName(n)
		if err != nil {
			return nil, err
		}
		return &Material{Entity: ent, Name: name}, nil

	case EntityTransmission:
		name, err := requiredName(n)
		if err != nil {
			return nil, err
		}
		return &Transmission{Entity: ent, Name: name}, nil

	case EntityVisual:
		name, _ := n.attr("name")
		return &Visual{Entity: ent, Name: name}, nil

	case EntityCollision:
		name, _ := n.attr("name")
		return &Collision{Entity: ent, Name: name}, nil

	case EntityInertial:
		return &Inertial{Entity: ent}, nil

	case EntityInertia:
		inertia := &Inertia{Entity: ent}
		for attr, dst := range map[string]*float64{
			"ixx": &inertia.Tensor.Ixx, "iyy": &inertia.Tensor.Iyy, "izz": &inertia.Tensor.Izz,
			"ixy": &inertia.Tensor.Ixy, "ixz": &inertia.Tensor.Ixz, "iyz": &inertia.Tensor.Iyz,
		} {
			if err := optionalFloat(n, attr, dst); err != nil {
				return nil, err
			}
		}
		return inertia, nil

	case EntityMass:
		mass := &Mass{Entity: ent}
		if err := optionalFloat(n, "value", &mass.Value); err != nil {
			return nil, err
		}
		return mass, nil

	case EntityOrigin:
		pose := &Pose{Entity: ent}
		if err := optionalFloat3(n, "xyz", &pose.XYZ); err != nil {
			return nil, err
		}
		if err := optionalFloat3(n, "rpy", &pose.RPY); err != nil {
			return nil, err
		}
		return pose, nil

	case EntityGeometry:
		return &Geometry{Entity: ent}, nil

	case EntityBox:
		box := &Box{Entity: ent}
		if err := optionalFloat3(n, "size", &box.Size); err != nil {
			return nil, err
		}
		return box, nil

	case EntitySphere:
		sphere := &Sphere{Entity: ent}
		if err := optionalFloat(n, "radius", &sphere.Radius); err != nil {
			return nil, err
		}
		return sphere, nil

	case EntityCylinder:
		cyl := &Cylinder{Entity: ent}
		if err := optionalFloat(n, "radius", &cyl.Radius); err != nil {
			return nil, err
		}
		if err := optionalFloat(n, "length", &cyl.Length); err != nil {
			return nil, err
		}
		return cyl, nil

	case EntityMesh:
		mesh := &MeshRef{Entity: ent, Scale: r3.Vec{X: 1, Y: 1, Z: 1}}
		filename, ok := n.attr("filename")
		if !ok {
			return nil, structuralf(n.tag, n.line, "filename is required")
		}
		mesh.Filename = filename
		if err := optionalFloat3(n, "scale", &mesh.Scale); err != nil {
			return nil, err
		}
		return mesh, nil

	case EntityColor:
		color := &Color{Entity: ent}
		if err := optionalFloat4(n, "rgba", &color.RGBA); err != nil {
			return nil, err
		}
		return color, nil

	case EntityTexture:
		texture := &Texture{Entity: ent}
		texture.Filename, _ = n.attr("filename")
		return texture, nil

	case EntityParent:
		link, ok := n.attr("link")
		if !ok {
			return nil, structuralf(n.tag, n.line, "link is required")
		}
		return &ParentRef{Entity: ent, Link: link}, nil

	case EntityChild:
		link, ok := n.attr("link")
		if !ok {
			return nil, structuralf(n.tag, n.line, "link is required")
		}
		return &ChildRef{Entity: ent, Link: link}, nil

	case EntityAxis:
		axis := &Axis{Entity: ent, XYZ: r3.Vec{X: 1}}
		if err := optionalFloat3(n, "xyz", &axis.XYZ); err != nil {
			return nil, err
		}
		return axis, nil

	case EntityCalibration:
		cal := &Calibration{Entity: ent}
		var err error
		if cal.ReferencePosition, err = optionalFloatPtr(n, "reference_position"); err != nil {
			return nil, err
		}
		if cal.Rising, err = optionalFloatPtr(n, "rising"); err != nil {
			return nil, err
		}
		if cal.Falling, err = optionalFloatPtr(n, "falling"); err != nil {
			return nil, err
		}
		return cal, nil

	case EntityDynamics:
		dyn := &Dynamics{Entity: ent}
		var err error
		if dyn.Damping, err = optionalFloatPtr(n, "damping"); err != nil {
			return nil, err
		}
		if dyn.Friction, err = optionalFloatPtr(n, "friction"); err != nil {
			return nil, err
		}
		return dyn, nil

	case EntityLimit:
		limit := &Limit{Entity: ent}
		for attr, dst := range map[string]*float64{
			"lower": &limit.Lower, "upper": &limit.Upper,
			"effort": &limit.Effort, "velocity": &limit.Velocity,
		} {
			if err := optionalFloat(n, attr, dst); err != nil {
				return nil, err
			}
		}
		return limit, nil

	case EntitySafetyController:
		sc := &SafetyController{Entity: ent}
		if _, ok := n.attr("k_velocity"); !ok {
			return nil, structuralf(n.tag, n.line, "k_velocity is required")
		}
		for attr, dst := range map[string]*float64{
			"soft_lower_limit": &sc.SoftLowerLimit, "soft_upper_limit": &sc.SoftUpperLimit,
			"k_position": &sc.KPosition, "k_velocity": &sc.KVelocity,
		} {
			if err := optionalFloat(n, attr, dst); err != nil {
				return nil, err
			}
		}
		return sc, nil

	case EntityMimic:
		mimic := &Mimic{Entity: ent, Multiplier: 1}
		joint, ok := n.attr("joint")
		if !ok {
			return nil, structuralf(n.tag, n.line, "joint is required")
		}
		mimic.Joint = joint
		if err := optionalFloat(n, "multiplier", &mimic.Multiplier); err != nil {
			return nil, err
		}
		if err := optionalFloat(n, "offset", &mimic.Offset); err != nil {
			return nil, err
		}
		return mimic, nil

	case EntityVerbose:
		verbose := &Verbose{Entity: ent}
		verbose.Value, _ = n.attr("value")
		return verbose, nil

	case EntityTransmissionJoint:
		name, err := requiredName(n)
		if err != nil {
			return nil, err
		}
		return &TransmissionJoint{Entity: ent, Name: name}, nil

	case EntityTransmissionActuator:
		name, err := requiredName(n)
		if err != nil {
			return nil, err
		}
		return &TransmissionActuator{Entity: ent, Name: name}, nil

	case EntityTransmissionHardwareInterface:
		return &HardwareInterface{Entity: ent, Text: trimmedText(n)}, nil

	case EntityTransmissionMechanicalReduction:
		mr := &MechanicalReduction{Entity: ent}
		if t := trimmedText(n); t != "" {
			v, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return nil, structuralf(n.tag, n.line, "invalid value: %s", t)
			}
			mr.Value = v
		}
		return mr, nil

	case EntityTransmissionType:
		return &TransmissionType{Entity: ent, Text: trimmedText(n)}, nil
	}

	return nil, structuralf(n.tag, n.line, "unhandled entity type")
}

// attach wires a parsed child into its parent entity, enforcing the
// document-level name uniqueness constraints as siblings are appended.
func attach(parent element, parentType EntityType, child element, n *xmlNode) error {
	switch p := parent.(type) {
	case *Robot:
		switch c := child.(type) {
		case *Link:
			if p.LinkByName(c.Name) != nil {
				return structuralf(n.tag, n.line, "link name '%s' already exists", c.Name)
			}
			p.Links = append(p.Links, c)
		case *Material:
			if p.MaterialByName(c.Name) != nil {
				return structuralf(n.tag, n.line, "material name '%s' already exists", c.Name)
			}
			p.Materials = append(p.Materials, c)
		case *Joint:
			for _, j := range p.Joints {
				if j.Name == c.Name {
					return structuralf(n.tag, n.line, "joint name '%s' already exists", c.Name)
				}
			}
			p.Joints = append(p.Joints, c)
		case *Transmission:
			for _, t := range p.Transmissions {
				if t.Name == c.Name {
					return structuralf(n.tag, n.line, "transmission name '%s' already exists", c.Name)
				}
			}
			p.Transmissions = append(p.Transmissions, c)
		}

	case *Material:
		switch c := child.(type) {
		case *Color:
			p.Color = c
		case *Texture:
			p.Texture = c
		}

	case *Link:
		switch c := child.(type) {
		case *Visual:
			p.Visuals = append(p.Visuals, c)
		case *Collision:
			p.Collisions = append(p.Collisions, c)
		case *Inertial:
			p.Inertial = c
		}

	case *Visual:
		switch c := child.(type) {
		case *Geometry:
			p.Geometry = c
		case *Pose:
			p.Origin = c
		case *Material:
			p.Material = c
		}

	case *Collision:
		switch c := child.(type) {
		case *Geometry:
			p.Geometry = c
		case *Pose:
			p.Origin = c
		case *Verbose:
			p.Verbose = c
		}

	case *Geometry:
		if c, ok := child.(Shape); ok {
			p.Shape = c
		}

	case *Inertial:
		switch c := child.(type) {
		case *Pose:
			p.Origin = c
		case *Inertia:
			p.Inertia = c
		case *Mass:
			p.Mass = c
		}

	case *Joint:
		switch c := child.(type) {
		case *Pose:
			p.Origin = c
		case *Limit:
			p.Limit = c
		case *ParentRef:
			p.Parent = c
		case *ChildRef:
			p.Child = c
		case *Axis:
			p.Axis = c
		case *Dynamics:
			p.Dynamics = c
		case *Calibration:
			p.Calibration = c
		case *SafetyController:
			p.SafetyController = c
		case *Mimic:
			p.Mimic = c
		}

	case *Transmission:
		switch c := child.(type) {
		case *TransmissionActuator:
			p.Actuator = c
		case *TransmissionJoint:
			p.Joint = c
		case *TransmissionType:
			p.Type = c
		}

	case *TransmissionActuator:
		switch c := child.(type) {
		case *MechanicalReduction:
			p.MechanicalReduction = c
		case *HardwareInterface:
			p.HardwareInterface = c
		}

	case *TransmissionJoint:
		if c, ok := child.(*HardwareInterface); ok {
			p.HardwareInterface = c
		}
	}
	return nil
}

// validate enforces the cross-reference constraints that need the whole
// document: material references, joint link references, and geometry
// variants.
func validate(robot *Robot) error {
	for _, link := range robot.Links {
		for _, visual := range link.Visuals {
			m := visual.Material
			if m != nil && m.Name != "" && m.Color == nil && m.Texture == nil && robot.MaterialByName(m.Name) == nil {
				return structuralf(m.Tag, m.Line, "material name '%s' not found", m.Name)
			}
		}
	}

	for _, joint := range robot.Joints {
		if joint.Parent == nil {
			return structuralf(joint.Tag, joint.Line, "parent is required")
		}
		if joint.Child == nil {
			return structuralf(joint.Tag, joint.Line, "child is required")
		}
		if robot.LinkByName(joint.Parent.Link) == nil {
			return structuralf(joint.Parent.Tag, joint.Parent.Line, "parent link '%s' not found", joint.Parent.Link)
		}
		if robot.LinkByName(joint.Child.Link) == nil {
			return structuralf(joint.Child.Tag, joint.Child.Line, "child link '%s' not found", joint.Child.Link)
		}
	}

	for _, link := range robot.Links {
		for _, visual := range link.Visuals {
			if visual.Geometry != nil && visual.Geometry.Shape == nil {
				return structuralf(visual.Geometry.Tag, visual.Geometry.Line, "geometry must have one of the following: box, sphere, cylinder, or mesh")
			}
		}
		for _, collision := range link.Collisions {
			if collision.Geometry != nil && collision.Geometry.Shape == nil {
				return structuralf(collision.Geometry.Tag, collision.Geometry.Line, "geometry must have one of the following: box, sphere, cylinder, or mesh")
			}
		}
	}
	return nil
}

// entityTypeOf recovers the registry type for an already-built entity.
func entityTypeOf(el element) EntityType {
	switch el.(type) {
	case *Robot:
		return EntityRobot
	case *Link:
		return EntityLink
	case *Joint:
		return EntityJoint
	case *Material:
		return EntityMaterial
	case *Transmission:
		return EntityTransmission
	case *Visual:
		return EntityVisual
	case *Collision:
		return EntityCollision
	case *Inertial:
		return EntityInertial
	case *Inertia:
		return EntityInertia
	case *Mass:
		return EntityMass
	case *Pose:
		return EntityOrigin
	case *Geometry:
		return EntityGeometry
	case *Box:
		return EntityBox
	case *Sphere:
		return EntitySphere
	case *Cylinder:
		return EntityCylinder
	case *MeshRef:
		return EntityMesh
	case *Color:
		return EntityColor
	case *Texture:
		return EntityTexture
	case *ParentRef:
		return EntityParent
	case *ChildRef:
		return EntityChild
	case *Axis:
		return EntityAxis
	case *Calibration:
		return EntityCalibration
	case *Dynamics:
		return EntityDynamics
	case *Limit:
		return EntityLimit
	case *SafetyController:
		return EntitySafetyController
	case *Mimic:
		return EntityMimic
	case *Verbose:
		return EntityVerbose
	case *TransmissionJoint:
		return EntityTransmissionJoint
	case *TransmissionActuator:
		return EntityTransmissionActuator
	case *HardwareInterface:
		return EntityTransmissionHardwareInterface
	case *MechanicalReduction:
		return EntityTransmissionMechanicalReduction
	case *TransmissionType:
		return EntityTransmissionType
	}
	return EntityInvalid
}

// consumesText reports whether the entity type carries element text as
// typed data.
func consumesText(et EntityType) bool {
	switch et {
	case EntityTransmissionHardwareInterface, EntityTransmissionMechanicalReduction, EntityTransmissionType:
		return true
	}
	return false
}

func requiredName(n *xmlNode) (string, error) {
	name, ok := n.attr("name")
	if !ok || name == "" {
		return "", structuralf(n.tag, n.line, "name is required")
	}
	return name, nil
}

func optionalFloat(n *xmlNode, attr string, dst *float64) error {
	raw, ok := n.attr(attr)
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return structuralf(n.tag, n.line, "%s: invalid value: %s", attr, raw)
	}
	*dst = v
	return nil
}

func optionalFloatPtr(n *xmlNode, attr string) (*float64, error) {
	raw, ok := n.attr(attr)
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, structuralf(n.tag, n.line, "%s: invalid value: %s", attr, raw)
	}
	return &v, nil
}

func optionalFloat3(n *xmlNode, attr string, dst *r3.Vec) error {
	raw, ok := n.attr(attr)
	if !ok {
		return nil
	}
	parts := strings.Fields(raw)
	if len(parts) != 3 {
		return structuralf(n.tag, n.line, "%s: invalid value: %s", attr, raw)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return structuralf(n.tag, n.line, "%s: invalid value: %s", attr, raw)
		}
		vals[i] = v
	}
	*dst = r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]}
	return nil
}

func optionalFloat4(n *xmlNode, attr string, dst *[4]float64) error {
	raw, ok := n.attr(attr)
	if !ok {
		return nil
	}
	parts := strings.Fields(raw)
	if len(parts) != 4 {
		return structuralf(n.tag, n.line, "%s: invalid value: %s", attr, raw)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return structuralf(n.tag, n.line, "%s: invalid value: %s", attr, raw)
		}
		dst[i] = v
	}
	return nil
}
