package urdf

// Entity types resolved by the schema registry. Several tags map to
// different types depending on the parent tag ("origin" under inertial vs
// joint, "material" under robot vs visual, "joint" under robot vs
// transmission), so resolution always considers both.
type EntityType int

const (
	EntityInvalid EntityType = iota
	EntityRobot
	EntityLink
	EntityJoint
	EntityMaterialGlobal
	EntityMaterial
	EntityTransmission
	EntityVisual
	EntityCollision
	EntityInertial
	EntityInertia
	EntityMass
	EntityOrigin
	EntityGeometry
	EntityBox
	EntitySphere
	EntityCylinder
	EntityMesh
	EntityColor
	EntityTexture
	EntityParent
	EntityChild
	EntityAxis
	EntityCalibration
	EntityDynamics
	EntityLimit
	EntitySafetyController
	EntityMimic
	EntityVerbose
	EntityTransmissionJoint
	EntityTransmissionActuator
	EntityTransmissionHardwareInterface
	EntityTransmissionMechanicalReduction
	EntityTransmissionType
)

// schemaRule binds an entity type to the parent tags under which its tag
// may legally appear.
type schemaRule struct {
	entity  EntityType
	parents []string
}

// tagRules maps each schema tag to its legal placements, following the
// urdfdom XSD (plus the transmission extensions from the ROS wiki).
var tagRules = map[string][]schemaRule{
	"robot":        {{EntityRobot, []string{""}}},
	"link":         {{EntityLink, []string{"robot"}}},
	"joint":        {{EntityJoint, []string{"robot"}}, {EntityTransmissionJoint, []string{"transmission"}}},
	"material":     {{EntityMaterialGlobal, []string{"robot"}}, {EntityMaterial, []string{"visual"}}},
	"transmission": {{EntityTransmission, []string{"robot"}}},

	"inertial":  {{EntityInertial, []string{"link"}}},
	"visual":    {{EntityVisual, []string{"link"}}},
	"collision": {{EntityCollision, []string{"link"}}},

	"origin":   {{EntityOrigin, []string{"inertial", "visual", "collision", "joint", "sensor"}}},
	"mass":     {{EntityMass, []string{"inertial"}}},
	"inertia":  {{EntityInertia, []string{"inertial"}}},
	"geometry": {{EntityGeometry, []string{"visual", "collision"}}},

	"box":      {{EntityBox, []string{"geometry"}}},
	"sphere":   {{EntitySphere, []string{"geometry"}}},
	"cylinder": {{EntityCylinder, []string{"geometry"}}},
	"mesh":     {{EntityMesh, []string{"geometry"}}},

	"color":   {{EntityColor, []string{"material"}}},
	"texture": {{EntityTexture, []string{"material"}}},
	"verbose": {{EntityVerbose, []string{"collision"}}},

	"parent":            {{EntityParent, []string{"joint", "sensor"}}},
	"child":             {{EntityChild, []string{"joint"}}},
	"axis":              {{EntityAxis, []string{"joint"}}},
	"calibration":       {{EntityCalibration, []string{"joint"}}},
	"dynamics":          {{EntityDynamics, []string{"joint"}}},
	"limit":             {{EntityLimit, []string{"joint"}}},
	"safety_controller": {{EntitySafetyController, []string{"joint"}}},
	"mimic":             {{EntityMimic, []string{"joint"}}},

	"actuator":            {{EntityTransmissionActuator, []string{"transmission"}}},
	"type":                {{EntityTransmissionType, []string{"transmission"}}},
	"hardwareInterface":   {{EntityTransmissionHardwareInterface, []string{"actuator", "joint"}}},
	"mechanicalReduction": {{EntityTransmissionMechanicalReduction, []string{"actuator"}}},
}

// reservedTags are all element names the URDF schema reserves, including
// tags this converter never materializes (sensor payloads, gazebo
// extensions). A reserved tag in a structurally invalid position is a hard
// parse error rather than undefined-content capture.
var reservedTags = map[string]bool{
	"actuator": true, "axis": true, "box": true, "calibration": true,
	"camera": true, "child": true, "collision": true, "color": true,
	"cylinder": true, "dynamics": true, "flexJoint": true, "gap_joint": true,
	"gazebo": true, "geometry": true, "hardwareInterface": true,
	"horizontal": true, "image": true,
	"inertia": true, "inertial": true, "joint": true, "leftActuator": true,
	"limit": true, "link": true, "mass": true, "material": true,
	"mechanicalReduction": true, "mesh": true, "mimic": true, "origin": true,
	"parent": true, "passive_joint": true, "ray": true, "rightActuator": true,
	"robot": true, "rollJoint": true, "safety_controller": true,
	"sensor": true, "sphere": true, "texture": true, "transmission": true,
	"type":                        true,
	"use_simulated_gripper_joint": true, "verbose": true, "vertical": true,
	"visual": true,
}

// tagAttributes whitelists the attributes each tag recognizes. Attributes
// outside the whitelist are preserved as unrecognized content.
var tagAttributes = map[string][]string{
	"actuator":          {"mechanicalReduction", "name"},
	"axis":              {"xyz"},
	"box":               {"size"},
	"calibration":       {"reference_position", "rising", "falling"},
	"child":             {"link"},
	"collision":         {"name"},
	"color":             {"rgba"},
	"cylinder":          {"length", "radius"},
	"dynamics":          {"damping", "friction"},
	"gap_joint":         {"L0", "a", "b", "gear_ratio", "h", "mechanical_reduction", "name", "phi0", "r", "screw_reduction", "t0", "theta0"},
	"image":             {"width", "height", "format", "hfov", "near", "far"},
	"inertia":           {"ixx", "ixy", "ixz", "iyy", "iyz", "izz"},
	"joint":             {"name", "type"},
	"limit":             {"lower", "upper", "effort", "velocity"},
	"link":              {"name"},
	"mass":              {"value"},
	"material":          {"name"},
	"mesh":              {"filename", "scale"},
	"mimic":             {"joint", "multiplier", "offset"},
	"origin":            {"xyz", "rpy"},
	"parent":            {"link"},
	"passive_joint":     {"name"},
	"robot":             {"name", "version"},
	"safety_controller": {"soft_lower_limit", "soft_upper_limit", "k_position", "k_velocity"},
	"sensor":            {"name", "update_rate", "version"},
	"sphere":            {"radius"},
	"texture":           {"filename"},
	"transmission":      {"name", "type"},
	"verbose":           {"value"},
}

// IsKnownTag reports whether tag is reserved by the URDF schema.
func IsKnownTag(tag string) bool {
	return reservedTags[tag]
}

// IsKnownAttribute reports whether attribute belongs to tag's whitelist.
func IsKnownAttribute(tag, attribute string) bool {
	for _, a := range tagAttributes[tag] {
		if a == attribute {
			return true
		}
	}
	return false
}

// ResolveEntityType resolves a tag in the context of its immediate parent
// tag. The root element resolves with an empty parent tag. EntityInvalid is
// returned when the tag has no legal placement under the given parent.
func ResolveEntityType(tag, parentTag string) EntityType {
	for _, rule := range tagRules[tag] {
		for _, p := range rule.parents {
			if p == parentTag {
				return rule.entity
			}
		}
	}
	return EntityInvalid
}
