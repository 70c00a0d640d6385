package kinematics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newton-physics/urdf-usd-converter/internal/urdf"
)

func parse(t *testing.T, doc string) *urdf.Robot {
	t.Helper()
	robot, err := urdf.Parse([]byte(doc))
	require.NoError(t, err)
	return robot
}

func TestBuildTree(t *testing.T) {
	robot := parse(t, `<robot name="r">
  <link name="base"/>
  <link name="left"/>
  <link name="right"/>
  <link name="tip"/>
  <joint name="j1" type="fixed"><parent link="base"/><child link="left"/></joint>
  <joint name="j2" type="fixed"><parent link="base"/><child link="right"/></joint>
  <joint name="j3" type="fixed"><parent link="left"/><child link="tip"/></joint>
</robot>`)

	root, err := Build(robot)
	require.NoError(t, err)
	assert.Equal(t, "base", root.Link.Name)
	require.Len(t, root.Edges, 2)

	// Children stay in document (joint) order.
	assert.Equal(t, "left", root.Edges[0].Child.Link.Name)
	assert.Equal(t, "j1", root.Edges[0].Joint.Name)
	assert.Equal(t, "right", root.Edges[1].Child.Link.Name)
	require.Len(t, root.Edges[0].Child.Edges, 1)
	assert.Equal(t, "tip", root.Edges[0].Child.Edges[0].Child.Link.Name)

	var order []string
	root.Walk(func(n *Node) { order = append(order, n.Link.Name) })
	assert.Equal(t, []string{"base", "left", "tip", "right"}, order)
}

func TestBuildCycleFails(t *testing.T) {
	robot := parse(t, `<robot name="r">
  <link name="a"/>
  <link name="b"/>
  <joint name="ab" type="fixed"><parent link="a"/><child link="b"/></joint>
  <joint name="ba" type="fixed"><parent link="b"/><child link="a"/></joint>
</robot>`)

	_, err := Build(robot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loop")
}

func TestBuildMultipleRootsFails(t *testing.T) {
	robot := parse(t, `<robot name="r">
  <link name="a"/>
  <link name="b"/>
  <link name="c"/>
  <link name="d"/>
  <joint name="j1" type="fixed"><parent link="a"/><child link="b"/></joint>
  <joint name="j2" type="fixed"><parent link="c"/><child link="d"/></joint>
</robot>`)

	_, err := Build(robot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no unique root link")
}

func TestBuildZeroJointsSingleLink(t *testing.T) {
	robot := parse(t, `<robot name="r">
  <link name="solo">
    <inertial><mass value="1"/><inertia ixx="1" iyy="1" izz="1"/></inertial>
  </link>
</robot>`)

	root, err := Build(robot)
	require.NoError(t, err)
	assert.Equal(t, "solo", root.Link.Name)
	assert.False(t, root.Ghost())
}

func TestBuildZeroLinksFails(t *testing.T) {
	robot := parse(t, `<robot name="empty"/>`)
	_, err := Build(robot)
	require.Error(t, err)
}

func TestGhostRoot(t *testing.T) {
	robot := parse(t, `<robot name="r">
  <link name="world_anchor"/>
  <link name="body">
    <inertial><mass value="1"/><inertia ixx="1" iyy="2" izz="3"/></inertial>
  </link>
  <joint name="j" type="fixed"><parent link="world_anchor"/><child link="body"/></joint>
</robot>`)

	root, err := Build(robot)
	require.NoError(t, err)
	assert.True(t, root.Ghost())
	assert.False(t, root.Edges[0].Child.Ghost())
}

func TestGhostNeedsNoData(t *testing.T) {
	robot := parse(t, `<robot name="r">
  <link name="base">
    <visual><geometry><box size="1 1 1"/></geometry></visual>
  </link>
  <link name="b"/>
  <joint name="j" type="fixed"><parent link="base"/><child link="b"/></joint>
</robot>`)

	root, err := Build(robot)
	require.NoError(t, err)
	// Visual geometry alone disqualifies a ghost.
	assert.False(t, root.Ghost())
}
