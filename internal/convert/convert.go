// Package convert runs the conversion passes that turn a parsed robot
// document into an authored stage: materials, links and geometry, physics
// joints, transmissions, and the undefined-content forwarding.
package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/newton-physics/urdf-usd-converter/internal/diag"
	"github.com/newton-physics/urdf-usd-converter/internal/kinematics"
	"github.com/newton-physics/urdf-usd-converter/internal/meshloader"
	"github.com/newton-physics/urdf-usd-converter/internal/names"
	"github.com/newton-physics/urdf-usd-converter/internal/numerics"
	"github.com/newton-physics/urdf-usd-converter/internal/rospkg"
	"github.com/newton-physics/urdf-usd-converter/internal/urdf"
	"github.com/newton-physics/urdf-usd-converter/internal/usd"
)

// Params configures one conversion.
type Params struct {
	// OutputDir receives the authored stage, named after the input stem.
	OutputDir string

	// Comment is embedded in the stage metadata when non-empty.
	Comment string

	// Packages maps package names to directories for package:// references.
	Packages map[string]string

	MetersPerUnit float64
	UpAxis        string
}

// Result is what one conversion produced.
type Result struct {
	OutputFile string
	Stage      *usd.Stage
	Warnings   []diag.Warning
}

// Converter converts robot documents to stages.
type Converter struct {
	params Params
	log    *zap.Logger
}

func New(params Params, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	if params.MetersPerUnit == 0 {
		params.MetersPerUnit = 1
	}
	if params.UpAxis == "" {
		params.UpAxis = "Z"
	}
	return &Converter{params: params, log: log}
}

// run carries the per-conversion caches: the name tables, the decoded mesh
// cache, and the entity→prim map used to bind undefined content near its
// owner. One run exists per Convert call; nothing is shared across runs.
type run struct {
	robot *urdf.Robot
	root  *kinematics.Node

	stage    *usd.Stage
	names    *names.Cache
	resolver *rospkg.Resolver
	rep      *diag.Reporter

	contextDir string

	rootPrim   *usd.Prim
	jointScope *usd.Prim

	linkPrims  map[string]*usd.Prim
	jointPrims map[string]*usd.Prim
	matPrims   map[string]*usd.Prim
	meshCache  map[urdf.MeshVariant]*meshloader.Data
	ownerPrims map[*urdf.Entity]*usd.Prim

	// linkWorld holds each link's accumulated document-space pose, used
	// for joint frame and world-anchor placement.
	linkWorld map[string]pose
}

type pose struct {
	pos r3.Vec
	rot quat.Number
}

// Convert parses inputFile and authors the stage into the output
// directory. Structural and I/O failures abort with an error; unsupported
// features and per-resource failures accumulate as warnings on the result.
func (c *Converter) Convert(inputFile string) (*Result, error) {
	robot, err := urdf.ParseFile(inputFile)
	if err != nil {
		return nil, err
	}
	root, err := kinematics.Build(robot)
	if err != nil {
		return nil, err
	}

	r := &run{
		robot:      robot,
		root:       root,
		stage:      usd.NewStage(),
		names:      names.NewCache(),
		resolver:   rospkg.NewResolver(c.params.Packages),
		rep:        diag.NewReporter(c.log),
		contextDir: filepath.Dir(inputFile),
		linkPrims:  map[string]*usd.Prim{},
		jointPrims: map[string]*usd.Prim{},
		matPrims:   map[string]*usd.Prim{},
		meshCache:  map[urdf.MeshVariant]*meshloader.Data{},
		ownerPrims: map[*urdf.Entity]*usd.Prim{},
		linkWorld:  map[string]pose{},
	}

	r.stage.MetersPerUnit = c.params.MetersPerUnit
	r.stage.UpAxis = c.params.UpAxis
	r.stage.Comment = c.params.Comment
	r.stage.Doc = fmt.Sprintf("Generated from %s", filepath.Base(inputFile))

	r.setupStage()
	r.authorMaterials()
	r.authorLinks()
	r.authorJoints()
	r.authorTransmissions()
	r.authorUndefined()

	if err := os.MkdirAll(c.params.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
	outPath := filepath.Join(c.params.OutputDir, stem+".usda")
	if err := r.stage.WriteFile(outPath); err != nil {
		return nil, err
	}
	c.log.Info("conversion complete",
		zap.String("robot", robot.Name),
		zap.String("output", outPath),
		zap.Int("warnings", len(r.rep.Warnings())))

	return &Result{OutputFile: outPath, Stage: r.stage, Warnings: r.rep.Warnings()}, nil
}

// setupStage authors the default prim (an Xform named after the robot) and
// the physics scene.
func (r *run) setupStage() {
	stageScope := "/"
	rootName := r.names.MakeUnique(stageScope, r.robot.Name)
	r.rootPrim = r.stage.DefineTransformNode(nil, rootName)
	if rootName != r.robot.Name {
		r.stage.SetDisplayLabel(r.rootPrim, r.robot.Name)
	}
	r.stage.SetDefaultPrim(r.rootPrim)
	r.ownerPrims[&r.robot.Entity] = r.rootPrim
	if r.robot.Version != "" {
		r.stage.SetCustomAttribute(r.rootPrim, "urdf:version", r.robot.Version)
	}

	sceneName := r.names.MakeUnique(stageScope, "PhysicsScene")
	r.stage.DefinePhysicsScene(sceneName)
}

// uniqueChild issues a collision-free prim name under parent and reports
// whether the spelling was rewritten.
func (r *run) uniqueChild(parent *usd.Prim, candidate string) (string, bool) {
	name := r.names.MakeUnique(parent.Path(), candidate)
	return name, name != candidate
}

// define creates an Xform child with uniquified naming, carrying the
// original spelling as a display label when it was rewritten.
func (r *run) define(parent *usd.Prim, candidate string) *usd.Prim {
	name, rewritten := r.uniqueChild(parent, candidate)
	p := r.stage.DefineTransformNode(parent, name)
	if rewritten {
		r.stage.SetDisplayLabel(p, candidate)
	}
	return p
}

// defineScope creates a Scope child with uniquified naming.
func (r *run) defineScope(parent *usd.Prim, candidate string) *usd.Prim {
	name, rewritten := r.uniqueChild(parent, candidate)
	p := r.stage.DefineScope(parent, name)
	if rewritten {
		r.stage.SetDisplayLabel(p, candidate)
	}
	return p
}

func poseFrom(xyz, rpy r3.Vec) pose {
	return pose{pos: xyz, rot: numerics.FromRPY(rpy.X, rpy.Y, rpy.Z)}
}

// compose applies child on top of parent: the child pose expressed in the
// parent's frame, returned in document space.
func (p pose) compose(child pose) pose {
	return pose{
		pos: r3.Add(p.pos, numerics.Rotate(p.rot, child.pos)),
		rot: quat.Mul(p.rot, child.rot),
	}
}
