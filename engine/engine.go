package engine

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"

	"github.com/basiclang/wasm-compiler/errors"
)

// hostModule is the import namespace emitted binaries resolve their
// intrinsics from.
const hostModule = "env"

// Config holds engine-level settings. The zero value is a working
// default: no extra memory cap, no threads, no compilation cache.
type Config struct {
	// MemoryLimitPages caps instance linear memory in 64 KiB pages.
	// Zero keeps the runtime's own ceiling.
	MemoryLimitPages uint32

	// Threads enables shared memory and atomics so binaries emitted
	// for multi-worker execution validate.
	Threads bool

	// CacheDir persists compiled machine code across processes.
	// Empty disables the cache.
	CacheDir string
}

// Engine compiles and instantiates emitted binaries. It owns a wazero
// runtime with the "env" host module already instantiated, so every
// binary's intrinsic imports resolve without further setup.
//
// Safe for concurrent use.
type Engine struct {
	runtime wazero.Runtime
	cache   wazero.CompilationCache
	nextID  atomic.Uint64
}

// New creates an engine with default configuration.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, Config{})
}

// NewWithConfig creates an engine with the given configuration.
// The engine holds resources until Close.
func NewWithConfig(ctx context.Context, cfg Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.Threads {
		runtimeCfg = runtimeCfg.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
	}

	var cache wazero.CompilationCache
	if cfg.CacheDir != "" {
		var err error
		cache, err = wazero.NewCompilationCacheWithDir(cfg.CacheDir)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseInstantiate, errors.KindIO, err,
				fmt.Sprintf("open compilation cache %q", cfg.CacheDir))
		}
		runtimeCfg = runtimeCfg.WithCompilationCache(cache)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	e := &Engine{runtime: rt, cache: cache}
	if err := e.instantiateHost(ctx); err != nil {
		_ = e.Close(ctx)
		return nil, err
	}

	Logger().Debug("engine ready",
		zap.Bool("threads", cfg.Threads),
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages),
		zap.String("cache_dir", cfg.CacheDir))
	return e, nil
}

// instantiateHost registers the intrinsic host module. The math
// intrinsics pass f64 values straight through; log_value routes the
// guest value to the engine logger.
func (e *Engine) instantiateHost(ctx context.Context) error {
	_, err := e.runtime.NewHostModuleBuilder(hostModule).
		NewFunctionBuilder().WithFunc(math.Sin).Export("sin").
		NewFunctionBuilder().WithFunc(math.Cos).Export("cos").
		NewFunctionBuilder().WithFunc(math.Sqrt).Export("sqrt").
		NewFunctionBuilder().WithFunc(logValue).Export("log_value").
		Instantiate(ctx)
	if err != nil {
		return errors.Instantiation(hostModule, err)
	}
	return nil
}

func logValue(_ context.Context, v float64) {
	Logger().Info("guest value", zap.Float64("value", v))
}

// Instantiate compiles data and starts an instance. Each instance gets
// a unique internal name so one engine can run the same binary several
// times.
func (e *Engine) Instantiate(ctx context.Context, data []byte) (*Instance, error) {
	start := time.Now()

	compiled, err := e.runtime.CompileModule(ctx, data)
	if err != nil {
		Logger().Error("module compile failed",
			zap.Int("binary_size", len(data)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, errors.Wrap(errors.PhaseInstantiate, errors.KindInvalidData, err, "compile module")
	}

	name := fmt.Sprintf("m%d", e.nextID.Add(1))
	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		Logger().Error("module instantiation failed",
			zap.Int("binary_size", len(data)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, errors.Instantiation(name, err)
	}

	Logger().Debug("module instantiated",
		zap.String("name", name),
		zap.Int("binary_size", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return &Instance{module: mod}, nil
}

// InstantiateStreaming reads the whole binary from r and then behaves
// exactly like Instantiate: same exports, same results, same errors.
func (e *Engine) InstantiateStreaming(ctx context.Context, r io.Reader) (*Instance, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseInstantiate, errors.KindIO, err, "read module stream")
	}
	return e.Instantiate(ctx, data)
}

// Close releases the runtime, all live instances, and the compilation
// cache if one was configured.
func (e *Engine) Close(ctx context.Context) error {
	err := e.runtime.Close(ctx)
	if e.cache != nil {
		if cerr := e.cache.Close(ctx); err == nil {
			err = cerr
		}
	}
	return err
}

// I32 packs a signed 32-bit value into the raw argument form Call expects.
func I32(v int32) uint64 { return api.EncodeI32(v) }

// F32 packs a single-precision float into the raw argument form Call expects.
func F32(v float32) uint64 { return api.EncodeF32(v) }

// F64 packs a float into the raw argument form Call expects.
func F64(v float64) uint64 { return api.EncodeF64(v) }

// AsI32 unpacks a raw result as a signed 32-bit value.
func AsI32(raw uint64) int32 { return api.DecodeI32(raw) }

// AsF32 unpacks a raw result as a single-precision float.
func AsF32(raw uint64) float32 { return api.DecodeF32(raw) }

// AsF64 unpacks a raw result as a float.
func AsF64(raw uint64) float64 { return api.DecodeF64(raw) }
