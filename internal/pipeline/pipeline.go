// Package pipeline runs the view map stages over a set of shapes for one
// camera: classification, chaining, cusps, image intersections, occluder
// grid and visibility.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/chain"
	"github.com/Faultbox/viewmap/internal/engine/camera"
	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/feature"
	"github.com/Faultbox/viewmap/internal/grid"
	"github.com/Faultbox/viewmap/internal/logger"
	"github.com/Faultbox/viewmap/internal/progress"
	"github.com/Faultbox/viewmap/internal/sweep"
	"github.com/Faultbox/viewmap/internal/viewmap"
	"github.com/Faultbox/viewmap/internal/visibility"
)

// ErrNoProjection is returned by Build when no camera was configured.
var ErrNoProjection = errors.New("pipeline requires a projection")

// Stage names, in execution order.
const (
	StageClassify      = "classify"
	StageChain         = "chain"
	StageCusps         = "cusps"
	StageIntersections = "intersections"
	StageGrid          = "grid"
	StageVisibility    = "visibility"
	StageDone          = "done"
)

// Options gathers the options of every stage.
type Options struct {
	Feature    feature.Options
	Chain      chain.Options
	Sweep      sweep.Options
	Visibility visibility.Options

	// GridCells is the target number of occluder grid cells.
	GridCells int

	ComputeCusps bool
}

// DefaultOptions returns the defaults of every stage.
func DefaultOptions() Options {
	return Options{
		Feature:      feature.DefaultOptions(),
		Chain:        chain.DefaultOptions(),
		Sweep:        sweep.DefaultOptions(),
		Visibility:   visibility.DefaultOptions(),
		GridCells:    grid.DefaultCells,
		ComputeCusps: true,
	}
}

// Result is the outcome of one build.
type Result struct {
	ViewMap *viewmap.ViewMap

	// Warnings combines the stage errors that were skipped over.
	Warnings error

	// Canceled is set when the cancel predicate stopped the build during
	// Stage.
	Canceled bool
	Stage    string

	Grid *grid.Grid
}

// Builder builds view maps. A Builder is not safe for concurrent use, but
// separate builds share no state.
type Builder struct {
	opts     Options
	proj     *camera.Projection
	reporter progress.Reporter
	cancel   progress.CancelFunc
	log      *zap.Logger
}

// NewBuilder creates a builder for the given camera.
func NewBuilder(opts Options, proj *camera.Projection) *Builder {
	return &Builder{
		opts:     opts,
		proj:     proj,
		reporter: progress.Nop{},
		log:      logger.Named("pipeline"),
	}
}

// SetProgress sets the sink stage progress is reported to.
func (b *Builder) SetProgress(r progress.Reporter) {
	if r == nil {
		r = progress.Nop{}
	}
	b.reporter = r
}

// SetCancel sets the predicate polled between work items.
func (b *Builder) SetCancel(fn progress.CancelFunc) {
	b.cancel = fn
}

// Build runs every stage over shapes. An error is returned only for
// unusable input; stage failures end up in Result.Warnings.
func (b *Builder) Build(shapes []*mesh.Shape) (*Result, error) {
	if b.proj == nil {
		return nil, ErrNoProjection
	}
	start := time.Now()
	b.reporter.Reset()
	res := &Result{ViewMap: viewmap.New()}
	vm := res.ViewMap

	st := b.begin(res, StageClassify, len(shapes))
	detector := feature.NewDetector(b.opts.Feature, b.proj)
	for _, s := range shapes {
		detector.Process(s)
		if !st.Step() {
			return b.canceled(res), nil
		}
	}

	st = b.begin(res, StageChain, len(shapes))
	chains := chain.NewBuilder(b.opts.Chain, b.proj)
	for _, s := range shapes {
		chains.Build(vm, s)
		if !st.Step() {
			return b.canceled(res), nil
		}
	}

	if b.opts.ComputeCusps {
		st = b.begin(res, StageCusps, 1)
		visibility.ComputeCusps(vm, b.proj)
		if !st.Step() {
			return b.canceled(res), nil
		}
	}

	st = b.begin(res, StageIntersections, 2*len(vm.FEdges))
	if _, ok := sweep.New(b.opts.Sweep, b.proj).ComputeIntersections(vm, st); !ok {
		return b.canceled(res), nil
	}

	b.begin(res, StageGrid, 1)
	g, err := grid.Build(shapes, b.opts.GridCells)
	if err != nil {
		b.warn(res, err)
	}
	res.Grid = g

	st = b.begin(res, StageVisibility, len(vm.ViewEdges))
	ok, err := visibility.NewCaster(b.opts.Visibility, b.proj, g).Compute(vm, st)
	switch {
	case err != nil:
		b.warn(res, fmt.Errorf("visibility skipped: %w", err))
	case !ok:
		return b.canceled(res), nil
	}

	res.Stage = StageDone
	stats := vm.Stats()
	b.log.Info("view map built",
		zap.Int("shapes", stats.Shapes),
		zap.Int("view_edges", stats.ViewEdges),
		zap.Int("view_vertices", stats.ViewVertices),
		zap.Int("t_vertices", stats.TVertices),
		zap.Int("cusps", stats.Cusps),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (b *Builder) begin(res *Result, stage string, total int) *progress.Stage {
	res.Stage = stage
	b.log.Debug("stage started", zap.String("stage", stage), zap.Int("steps", total))
	return progress.Begin(b.reporter, b.cancel, stage, total)
}

func (b *Builder) warn(res *Result, err error) {
	b.log.Warn("stage skipped", zap.String("stage", res.Stage), zap.Error(err))
	res.Warnings = multierr.Append(res.Warnings, err)
}

func (b *Builder) canceled(res *Result) *Result {
	res.Canceled = true
	b.log.Info("build canceled", zap.String("stage", res.Stage))
	return res
}
