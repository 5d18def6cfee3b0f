// Package meshsplit partitions a triangle mesh into smaller meshes, one per
// cell of a uniform 3D grid, keeping every vertex record intact.
//
// A split snapshots the source vertex buffer, assigns each triangle to the
// cell holding its centroid and then builds one mesh per cell in parallel by
// copying whole vertex records. The copy never decodes individual channels,
// so any vertex layout is carried through unchanged.
package meshsplit

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Span names reported to a Tracer.
const (
	SpanBucketize = "bucketize"
	SpanBuild     = "build"
)

// Tracer receives named start/stop hooks around the split phases.
// It only observes; results do not depend on it.
type Tracer interface {
	Start(name string)
	Stop(name string)
}

type nopTracer struct{}

func (nopTracer) Start(string) {}
func (nopTracer) Stop(string)  {}

// Options tunes how a split executes. None of them affect its output.
type Options struct {
	Workers   int // goroutines building buckets; 0 uses GOMAXPROCS
	ChunkSize int // buckets per task; 0 picks one from the bucket count
	Tracer    Tracer
	Logger    *zap.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithChunkSize sets how many buckets one task builds.
func WithChunkSize(n int) Option {
	return func(o *Options) { o.ChunkSize = n }
}

// WithTracer installs phase hooks.
func WithTracer(t Tracer) Option {
	return func(o *Options) { o.Tracer = t }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Splitter splits meshes with a fixed set of parameters. It is safe for
// concurrent use.
type Splitter struct {
	params Parameters
	opts   Options
}

// New validates params and returns a Splitter.
func New(params Parameters, opts ...Option) (*Splitter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers < 0 {
		return nil, fmt.Errorf("%w: must be >= 0, got %d", ErrInvalidWorkers, o.Workers)
	}
	if o.ChunkSize < 0 {
		return nil, fmt.Errorf("%w: chunkSize must be >= 0, got %d", ErrConfiguration, o.ChunkSize)
	}
	if o.Tracer == nil {
		o.Tracer = nopTracer{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Splitter{params: params, opts: o}, nil
}

// Parameters returns the parameters the splitter was created with.
func (s *Splitter) Parameters() Parameters {
	return s.params
}

// Split partitions src into one SubMesh per non-empty grid cell, ordered by
// key. The call is all or nothing: on any error, including cancellation of
// ctx, no meshes are returned.
func (s *Splitter) Split(ctx context.Context, src *SourceMesh) ([]SubMesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, opError("validate", err)
	}

	log := s.opts.Logger
	for _, attr := range src.Layout.Attributes {
		log.Debug("vertex attribute", zap.Stringer("attr", attr))
	}

	cache, err := NewVertexBufferCache(src)
	if err != nil {
		return nil, opError("cache", err)
	}

	s.opts.Tracer.Start(SpanBucketize)
	buckets, err := Bucketize(src.Indices, src.Positions, s.params.GridSize, s.params.SplitAxes)
	s.opts.Tracer.Stop(SpanBucketize)
	if err != nil {
		return nil, opError("bucketize", err)
	}

	builder := NewSubMeshBuilder(cache)
	sched := newScheduler(s.opts.Workers, s.opts.ChunkSize)

	s.opts.Tracer.Start(SpanBuild)
	data, err := sched.run(ctx, buckets, builder.Build)
	s.opts.Tracer.Stop(SpanBuild)
	if err != nil {
		return nil, opError("build", err)
	}

	meshes, err := assemble(buckets, data, s.params.GridSize)
	if err != nil {
		return nil, opError("assemble", err)
	}

	log.Info("mesh split",
		zap.Int("triangles", src.TriangleCount()),
		zap.Int("buckets", len(meshes)),
		zap.Int("stride", cache.Stride()),
		zap.Float32("gridSize", s.params.GridSize))
	return meshes, nil
}

// Split is a convenience wrapper that builds a Splitter and runs it once.
func Split(ctx context.Context, src *SourceMesh, params Parameters, opts ...Option) ([]SubMesh, error) {
	s, err := New(params, opts...)
	if err != nil {
		return nil, err
	}
	return s.Split(ctx, src)
}
