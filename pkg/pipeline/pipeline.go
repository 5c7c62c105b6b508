// Package pipeline runs the full compilation pipeline: structural hashing,
// type inference, and pass generation, with cached results keyed on the
// inferred graph's hash.
//
// A Runner owns the cross-invocation dependencies (cache backend, keyer,
// logger, hooks); Options carry the per-invocation knobs. Hooks are plain
// injected callbacks, never process-wide state, so embedding callers can
// attach their own metrics without global registration.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/shaderflow/shaderflow/pkg/cache"
	"github.com/shaderflow/shaderflow/pkg/compile"
	"github.com/shaderflow/shaderflow/pkg/errors"
	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/infer"
	"github.com/shaderflow/shaderflow/pkg/shader"
)

// Options configure one pipeline run.
type Options struct {
	// Output is the id of the node whose output the program renders.
	Output string

	// SkipInference compiles the graph's current port types as-is.
	SkipInference bool

	// Refresh bypasses the cache read (the result is still stored).
	Refresh bool

	// ArrayCapacity overrides the default capacity for unsized array
	// ports. Zero means shader.DefaultArrayCapacity.
	ArrayCapacity int

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger
}

// ValidateAndSetDefaults checks required options and fills defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Output == "" {
		return errors.New(errors.ErrCodeInvalidInput, "output node is required")
	}
	if o.ArrayCapacity <= 0 {
		o.ArrayCapacity = shader.DefaultArrayCapacity
	}
	return nil
}

// Hooks receives pipeline lifecycle events. All fields are optional.
type Hooks struct {
	CompileStarted  func(graphHash string)
	CompileFinished func(graphHash string, cacheHit bool, passCount int, elapsed time.Duration)
}

// Stats summarizes one run.
type Stats struct {
	NodeCount   int           `json:"node_count"`
	EdgeCount   int           `json:"edge_count"`
	PassCount   int           `json:"pass_count"`
	InferTime   time.Duration `json:"infer_time"`
	CompileTime time.Duration `json:"compile_time"`
}

// CacheInfo reports cache participation for one run.
type CacheInfo struct {
	CompileHit bool `json:"compile_hit"`
}

// Result is the output of one pipeline run.
type Result struct {
	// Graph is the inferred graph the passes were compiled from.
	Graph *graph.Graph

	// GraphHash is the structural hash of Graph.
	GraphHash string

	Passes []*compile.RenderPass

	// TypesChanged reports whether inference changed anything; false
	// means a caller holding a previous result need not have recompiled.
	TypesChanged bool

	Stats     Stats
	CacheInfo CacheInfo
}

// Runner executes pipeline runs against shared dependencies.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Hooks  Hooks
}

// NewRunner builds a runner, defaulting a nil cache to Null, a nil keyer to
// DefaultKeyer, and a nil logger to discard.
func NewRunner(c cache.Cache, k cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNull()
	}
	if k == nil {
		k = cache.DefaultKeyer{}
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Cache: c, Keyer: k, Logger: logger}
}

// Execute runs hash → infer → compile over g. The input graph is never
// mutated; Result.Graph is the inferred clone.
func (r *Runner) Execute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "pipeline canceled")
	}

	res := &Result{Graph: g}
	if !opts.SkipInference {
		start := time.Now()
		inferred, changed := infer.Infer(g, logger)
		res.Stats.InferTime = time.Since(start)
		res.Graph = inferred
		res.TypesChanged = changed
	}
	res.GraphHash = graph.Hash(res.Graph)
	res.Stats.NodeCount = res.Graph.NodeCount()
	res.Stats.EdgeCount = res.Graph.EdgeCount()

	key, err := r.Keyer.CompileKey(res.GraphHash, opts.ArrayCapacity)
	if err != nil {
		return nil, err
	}

	if r.Hooks.CompileStarted != nil {
		r.Hooks.CompileStarted(res.GraphHash)
	}
	start := time.Now()

	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, key); err != nil {
			logger.Warn("cache read failed, compiling", "err", err)
		} else if ok {
			passes, err := compile.DecodePasses(data)
			if err == nil {
				res.Passes = passes
				res.Stats.PassCount = len(passes)
				res.CacheInfo.CompileHit = true
				r.finish(res, time.Since(start))
				return res, nil
			}
			logger.Warn("corrupt cache entry, compiling", "key", key)
		}
	}

	passes, err := compile.Compile(res.Graph, opts.Output, compile.Options{
		Logger:               logger,
		DefaultArrayCapacity: opts.ArrayCapacity,
	})
	if err != nil {
		return nil, err
	}
	res.Stats.CompileTime = time.Since(start)
	res.Passes = passes
	res.Stats.PassCount = len(passes)

	if data, err := compile.EncodePasses(passes); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLCompile); err != nil {
			logger.Warn("cache write failed", "err", err)
		}
	}

	r.finish(res, time.Since(start))
	return res, nil
}

func (r *Runner) finish(res *Result, elapsed time.Duration) {
	if r.Hooks.CompileFinished != nil {
		r.Hooks.CompileFinished(res.GraphHash, res.CacheInfo.CompileHit, res.Stats.PassCount, elapsed)
	}
}
