package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero/api"

	"github.com/basiclang/wasm-compiler/errors"
)

// Instance is a running module. Not safe for concurrent use.
type Instance struct {
	module api.Module
}

// Call invokes an exported function by name with raw arguments packed
// via I32/F64. A guest trap comes back phase-tagged with the wazero
// cause wrapped.
func (i *Instance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRun, fmt.Sprintf("exported function %q", name))
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRun, errors.KindTrap, err, fmt.Sprintf("call %q", name))
	}
	return results, nil
}

// Functions lists the exported function names, sorted.
func (i *Instance) Functions() []string {
	defs := i.module.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signature reports an exported function's parameter and result value
// types as short names ("i32", "f64"). ok is false when no function of
// that name is exported.
func (i *Instance) Signature(name string) (params, results []string, ok bool) {
	def, ok := i.module.ExportedFunctionDefinitions()[name]
	if !ok {
		return nil, nil, false
	}
	for _, t := range def.ParamTypes() {
		params = append(params, api.ValueTypeName(t))
	}
	for _, t := range def.ResultTypes() {
		results = append(results, api.ValueTypeName(t))
	}
	return params, results, true
}

// Memory returns the instance's exported linear memory, or nil if the
// module exports none.
func (i *Instance) Memory() *Memory {
	mem := i.module.Memory()
	if mem == nil {
		return nil
	}
	return &Memory{mem: mem}
}

// Close releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}

// Memory wraps exported linear memory with bounds-checked accessors.
type Memory struct {
	mem api.Memory
}

// Size returns the current memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}

// Read returns count bytes at offset. The returned slice views the
// underlying memory; it is invalidated by memory growth.
func (m *Memory) Read(offset, count uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, count)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseRun, []string{"memory"}, int(offset)+int(count), int(m.mem.Size()))
	}
	return data, nil
}

// Write copies data into memory at offset.
func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseRun, []string{"memory"}, int(offset)+len(data), int(m.mem.Size()))
	}
	return nil
}
