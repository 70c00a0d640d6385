package convert

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/newton-physics/urdf-usd-converter/internal/diag"
	"github.com/newton-physics/urdf-usd-converter/internal/usd"
)

func convertDoc(t *testing.T, doc string) *Result {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "robot.urdf")
	require.NoError(t, os.WriteFile(input, []byte(doc), 0o644))

	result, err := New(Params{OutputDir: dir}, nil).Convert(input)
	require.NoError(t, err)
	return result
}

func attrFloat(t *testing.T, p *usd.Prim, name string) float64 {
	t.Helper()
	a, ok := p.Attr(name)
	require.True(t, ok, "attribute %s missing on %s", name, p.Path())
	v, ok := a.Value.(float64)
	require.True(t, ok, "attribute %s is not a float", name)
	return v
}

func warningsInCategory(warnings []diag.Warning, category string) []diag.Warning {
	var out []diag.Warning
	for _, w := range warnings {
		if w.Category == category {
			out = append(out, w)
		}
	}
	return out
}

const fullDoc = `<robot name="bot">
  <sim_plugin vendor="acme"/>
  <material name="red">
    <color rgba="1 0 0 1"/>
  </material>
  <link name="base">
    <inertial>
      <origin xyz="0 0 0.05"/>
      <mass value="2"/>
      <inertia ixx="1" iyy="2" izz="3"/>
    </inertial>
    <visual>
      <geometry><box size="0.2 0.4 0.6"/></geometry>
      <material name="red"/>
    </visual>
    <collision>
      <geometry><sphere radius="0.3"/></geometry>
    </collision>
  </link>
  <link name="arm" payload="heavy">
    <sim_plugin gain="0.5"/>
  </link>
  <link name="wheel"/>
  <link name="slider"/>
  <link name="pad"/>
  <link name="free"/>
  <joint name="j_rev" type="revolute">
    <origin xyz="0 0 0.3"/>
    <parent link="base"/>
    <child link="arm"/>
    <axis xyz="0 0 1"/>
    <limit lower="-1" upper="1" effort="10" velocity="2"/>
    <dynamics damping="0.5"/>
    <mimic joint="j_pris" multiplier="2" offset="0.1"/>
  </joint>
  <joint name="j_cont" type="continuous">
    <parent link="base"/>
    <child link="wheel"/>
    <axis xyz="0 1 0"/>
  </joint>
  <joint name="j_pris" type="prismatic">
    <parent link="base"/>
    <child link="slider"/>
    <axis xyz="1 0 0"/>
  </joint>
  <joint name="j_plane" type="planar">
    <parent link="base"/>
    <child link="pad"/>
    <axis xyz="0 0 -1"/>
  </joint>
  <joint name="j_float" type="floating">
    <parent link="base"/>
    <child link="free"/>
  </joint>
</robot>`

func TestConvertStageStructure(t *testing.T) {
	result := convertDoc(t, fullDoc)
	s := result.Stage

	root := s.DefaultPrim()
	require.NotNil(t, root)
	assert.Equal(t, "bot", root.Name())
	assert.Equal(t, "Xform", root.TypeName())
	assert.NotNil(t, s.PrimAtPath("/PhysicsScene"))

	for _, link := range []string{"base", "arm", "wheel", "slider", "pad", "free"} {
		require.NotNil(t, s.PrimAtPath("/bot/"+link), link)
	}

	// The root link is a real body: rigid body, articulation root, and a
	// synthetic world anchor.
	base := s.PrimAtPath("/bot/base")
	assert.True(t, base.HasAPI("PhysicsRigidBodyAPI"))
	assert.True(t, base.HasAPI("PhysicsArticulationRootAPI"))
	arm := s.PrimAtPath("/bot/arm")
	assert.True(t, arm.HasAPI("PhysicsRigidBodyAPI"))
	assert.False(t, arm.HasAPI("PhysicsArticulationRootAPI"))

	world := s.PrimAtPath("/bot/Joints/world_joint")
	require.NotNil(t, world)
	assert.Equal(t, "PhysicsFixedJoint", world.TypeName())
	rel, ok := world.Rel("physics:body1")
	require.True(t, ok)
	assert.Equal(t, base, rel.Targets[0])
	_, hasBody0 := world.Rel("physics:body0")
	assert.False(t, hasBody0)

	// Output file is real usda text.
	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#usda 1.0\n"))
	assert.Equal(t, "robot.usda", filepath.Base(result.OutputFile))
}

func TestConvertLinkPlacement(t *testing.T) {
	s := convertDoc(t, fullDoc).Stage

	arm := s.PrimAtPath("/bot/arm")
	a, ok := arm.Attr("xformOp:translate")
	require.True(t, ok)
	assert.InDelta(t, 0.3, a.Value.(r3.Vec).Z, 1e-12)
}

func TestConvertInertia(t *testing.T) {
	s := convertDoc(t, fullDoc).Stage

	base := s.PrimAtPath("/bot/base")
	assert.True(t, base.HasAPI("PhysicsMassAPI"))
	assert.Equal(t, 2.0, attrFloat(t, base, "physics:mass"))

	com, ok := base.Attr("physics:centerOfMass")
	require.True(t, ok)
	assert.InDelta(t, 0.05, com.Value.(r3.Vec).Z, 1e-12)

	diag, ok := base.Attr("physics:diagonalInertia")
	require.True(t, ok)
	assert.InDelta(t, 1.0, diag.Value.(r3.Vec).X, 1e-9)
	assert.InDelta(t, 3.0, diag.Value.(r3.Vec).Z, 1e-9)
}

func TestConvertRevoluteLimitsInDegrees(t *testing.T) {
	s := convertDoc(t, fullDoc).Stage

	j := s.PrimAtPath("/bot/Joints/j_rev")
	require.NotNil(t, j)
	assert.Equal(t, "PhysicsRevoluteJoint", j.TypeName())

	axis, ok := j.Attr("physics:axis")
	require.True(t, ok)
	assert.Equal(t, usd.Token("Z"), axis.Value)

	assert.InDelta(t, -180/math.Pi, attrFloat(t, j, "physics:lowerLimit"), 1e-9)
	assert.InDelta(t, 180/math.Pi, attrFloat(t, j, "physics:upperLimit"), 1e-9)

	// Effort/velocity and dynamics have no native slot; they ride along as
	// custom attributes.
	assert.Equal(t, 10.0, attrFloat(t, j, "urdf:limit:effort"))
	assert.Equal(t, 0.5, attrFloat(t, j, "urdf:dynamics:damping"))
}

func TestConvertContinuousUnbounded(t *testing.T) {
	s := convertDoc(t, fullDoc).Stage

	j := s.PrimAtPath("/bot/Joints/j_cont")
	require.NotNil(t, j)
	assert.Equal(t, "PhysicsRevoluteJoint", j.TypeName())
	assert.True(t, math.IsInf(attrFloat(t, j, "physics:lowerLimit"), -1))
	assert.True(t, math.IsInf(attrFloat(t, j, "physics:upperLimit"), 1))

	axis, _ := j.Attr("physics:axis")
	assert.Equal(t, usd.Token("Y"), axis.Value)
}

func TestConvertPrismaticDefaultsToZero(t *testing.T) {
	s := convertDoc(t, fullDoc).Stage

	j := s.PrimAtPath("/bot/Joints/j_pris")
	require.NotNil(t, j)
	assert.Equal(t, "PhysicsPrismaticJoint", j.TypeName())
	assert.Equal(t, 0.0, attrFloat(t, j, "physics:lowerLimit"))
	assert.Equal(t, 0.0, attrFloat(t, j, "physics:upperLimit"))
}

func TestConvertPlanarLocks(t *testing.T) {
	s := convertDoc(t, fullDoc).Stage

	j := s.PrimAtPath("/bot/Joints/j_plane")
	require.NotNil(t, j)
	assert.Equal(t, "PhysicsJoint", j.TypeName())

	// Axis (0,0,-1): motion confined to the XY plane, so the normal
	// translation and both in-plane-normal rotations are pinned.
	for _, degree := range []string{"transZ", "rotX", "rotY"} {
		assert.True(t, j.HasAPI("PhysicsLimitAPI:"+degree), degree)
		assert.Equal(t, 0.0, attrFloat(t, j, "limit:"+degree+":physics:low"))
		assert.Equal(t, 0.0, attrFloat(t, j, "limit:"+degree+":physics:high"))
	}
	assert.False(t, j.HasAPI("PhysicsLimitAPI:transX"))

	// The negative direction shows up as a half-turn frame correction
	// about X on both body frames.
	rot0, ok := j.Attr("physics:localRot0")
	require.True(t, ok)
	q := rot0.Value.(quat.Number)
	assert.InDelta(t, 0.0, q.Real, 1e-9)
	assert.InDelta(t, 1.0, math.Abs(q.Imag), 1e-9)
}

func TestConvertFloatingSkipped(t *testing.T) {
	result := convertDoc(t, fullDoc)

	assert.Nil(t, result.Stage.PrimAtPath("/bot/Joints/j_float"))
	warnings := warningsInCategory(result.Warnings, "joint")
	require.NotEmpty(t, warnings)

	found := false
	for _, w := range warnings {
		if strings.Contains(w.Message, "floating joints are not supported") {
			found = true
		}
	}
	assert.True(t, found)

	// The unconstrained child is still a body.
	free := result.Stage.PrimAtPath("/bot/free")
	require.NotNil(t, free)
	assert.True(t, free.HasAPI("PhysicsRigidBodyAPI"))
}

func TestConvertMimicForwardReference(t *testing.T) {
	s := convertDoc(t, fullDoc).Stage

	// j_rev mimics j_pris, which is declared later in the document.
	j := s.PrimAtPath("/bot/Joints/j_rev")
	ref, ok := j.Attr("urdf:mimic:joint")
	require.True(t, ok)
	assert.Equal(t, "/bot/Joints/j_pris", ref.Value)
	assert.Equal(t, 2.0, attrFloat(t, j, "urdf:mimic:multiplier"))
	assert.Equal(t, 0.1, attrFloat(t, j, "urdf:mimic:offset"))
}

func TestConvertMaterials(t *testing.T) {
	s := convertDoc(t, fullDoc).Stage

	mat := s.PrimAtPath("/bot/Materials/red")
	require.NotNil(t, mat)
	assert.Equal(t, "Material", mat.TypeName())
	require.NotNil(t, mat.Child("Shader"))

	base := s.PrimAtPath("/bot/base")
	var bound bool
	for _, child := range base.Children() {
		if rel, ok := child.Rel("material:binding"); ok {
			bound = true
			assert.Equal(t, mat, rel.Targets[0])
		}
	}
	assert.True(t, bound, "visual geometry must bind the material")
}

func TestConvertCollisionGeometry(t *testing.T) {
	s := convertDoc(t, fullDoc).Stage

	base := s.PrimAtPath("/bot/base")
	var collision *usd.Prim
	for _, child := range base.Children() {
		if child.TypeName() == "Sphere" {
			collision = child
		}
	}
	require.NotNil(t, collision)
	assert.True(t, collision.HasAPI("PhysicsCollisionAPI"))

	purpose, ok := collision.Attr("purpose")
	require.True(t, ok)
	assert.Equal(t, usd.Token("guide"), purpose.Value)
}

func TestConvertUndefinedContent(t *testing.T) {
	s := convertDoc(t, fullDoc).Stage

	// Link-owned unknown subtree lands under the link prim.
	plugin := s.PrimAtPath("/bot/arm/sim_plugin")
	require.NotNil(t, plugin)
	gain, ok := plugin.Attr("urdf:gain")
	require.True(t, ok)
	assert.Equal(t, "0.5", gain.Value)
	assert.True(t, gain.Custom)

	// Unknown attribute on a known link lands on the link prim itself.
	arm := s.PrimAtPath("/bot/arm")
	payload, ok := arm.Attr("urdf:payload")
	require.True(t, ok)
	assert.Equal(t, "heavy", payload.Value)

	// Robot-level unknown content collects under the catch-all scope.
	catchAll := s.PrimAtPath("/bot/custom/sim_plugin")
	require.NotNil(t, catchAll)
	vendor, ok := catchAll.Attr("urdf:vendor")
	require.True(t, ok)
	assert.Equal(t, "acme", vendor.Value)
}

func TestConvertGhostRoot(t *testing.T) {
	doc := `<robot name="rig">
  <link name="world"/>
  <link name="body">
    <inertial><mass value="1"/><inertia ixx="1" iyy="1" izz="1"/></inertial>
  </link>
  <joint name="anchor" type="fixed">
    <origin xyz="0 0 0.5"/>
    <parent link="world"/>
    <child link="body"/>
  </joint>
</robot>`
	s := convertDoc(t, doc).Stage

	// A ghost root anchors the tree without being a body; no synthetic
	// world joint is added.
	world := s.PrimAtPath("/rig/world")
	require.NotNil(t, world)
	assert.False(t, world.HasAPI("PhysicsRigidBodyAPI"))
	assert.False(t, world.HasAPI("PhysicsArticulationRootAPI"))
	assert.Nil(t, s.PrimAtPath("/rig/Joints/world_joint"))

	body := s.PrimAtPath("/rig/body")
	assert.True(t, body.HasAPI("PhysicsRigidBodyAPI"))
	assert.True(t, body.HasAPI("PhysicsArticulationRootAPI"))

	// The ghost-parent joint binds against the robot prim as its world
	// anchor, at the joint origin.
	j := s.PrimAtPath("/rig/Joints/anchor")
	require.NotNil(t, j)
	rel, ok := j.Rel("physics:body0")
	require.True(t, ok)
	assert.Equal(t, s.DefaultPrim(), rel.Targets[0])

	pos0, ok := j.Attr("physics:localPos0")
	require.True(t, ok)
	assert.InDelta(t, 0.5, pos0.Value.(r3.Vec).Z, 1e-12)
}

func TestConvertIllegalNamesGetDisplayLabels(t *testing.T) {
	doc := `<robot name="my robot">
  <link name="base-link">
    <inertial><mass value="1"/><inertia ixx="1" iyy="1" izz="1"/></inertial>
  </link>
</robot>`
	s := convertDoc(t, doc).Stage

	root := s.DefaultPrim()
	assert.True(t, strings.HasPrefix(root.Name(), "tn__"))
	assert.Equal(t, "my robot", root.DisplayName())

	var link *usd.Prim
	for _, child := range root.Children() {
		if child.DisplayName() == "base-link" {
			link = child
		}
	}
	require.NotNil(t, link)
	assert.True(t, strings.HasPrefix(link.Name(), "tn__"))
}

func TestConvertMissingFile(t *testing.T) {
	_, err := New(Params{OutputDir: t.TempDir()}, nil).Convert("/nonexistent/robot.urdf")
	require.Error(t, err)
}

func TestConvertMissingMeshWarnsAndContinues(t *testing.T) {
	doc := `<robot name="bot">
  <link name="base">
    <visual>
      <geometry><mesh filename="meshes/absent.stl"/></geometry>
    </visual>
  </link>
</robot>`
	result := convertDoc(t, doc)

	assert.NotEmpty(t, warningsInCategory(result.Warnings, "mesh"))
	base := result.Stage.PrimAtPath("/bot/base")
	require.NotNil(t, base)
	for _, child := range base.Children() {
		assert.NotEqual(t, "Mesh", child.TypeName())
	}
}

func TestConvertTransmissions(t *testing.T) {
	doc := `<robot name="bot">
  <link name="base">
    <inertial><mass value="1"/><inertia ixx="1" iyy="1" izz="1"/></inertial>
  </link>
  <transmission name="trans1">
    <type>transmission_interface/SimpleTransmission</type>
    <joint name="j_rev">
      <hardwareInterface>EffortJointInterface</hardwareInterface>
    </joint>
    <actuator name="motor1">
      <mechanicalReduction>50</mechanicalReduction>
    </actuator>
  </transmission>
</robot>`
	result := convertDoc(t, doc)
	s := result.Stage

	trans := s.PrimAtPath("/bot/Transmissions/trans1")
	require.NotNil(t, trans)
	typ, ok := trans.Attr("urdf:type")
	require.True(t, ok)
	assert.Equal(t, "transmission_interface/SimpleTransmission", typ.Value)

	motor := s.PrimAtPath("/bot/Transmissions/trans1/motor1")
	require.NotNil(t, motor)
	assert.Equal(t, 50.0, attrFloat(t, motor, "urdf:mechanical_reduction"))

	jp := s.PrimAtPath("/bot/Transmissions/trans1/j_rev")
	require.NotNil(t, jp)
	hw, ok := jp.Attr("urdf:hardware_interface")
	require.True(t, ok)
	assert.Equal(t, "EffortJointInterface", hw.Value)

	assert.NotEmpty(t, warningsInCategory(result.Warnings, "transmission"))
}
