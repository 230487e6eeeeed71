package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	wasmcompiler "github.com/basiclang/wasm-compiler"
	"github.com/basiclang/wasm-compiler/ast"
	"github.com/basiclang/wasm-compiler/codegen"
	"github.com/basiclang/wasm-compiler/engine"
	"github.com/basiclang/wasm-compiler/wasm"
)

func main() {
	var (
		programFile = flag.String("program", "", "Path to a JSON program file")
		outFile     = flag.String("o", "", "Write the compiled binary to this path")
		runProg     = flag.Bool("run", false, "Instantiate the binary and call a function")
		funcName    = flag.String("func", "", "Function to call with -run (default main)")
		argList     = flag.String("args", "", "Comma-separated arguments for -func")
		dump        = flag.Bool("dump", false, "Print a disassembly listing")
		listFuncs   = flag.Bool("list", false, "List exported functions")
		showStats   = flag.Bool("stats", false, "Print compilation stats")
		optimizeTr  = flag.Bool("O", false, "Run tree optimization passes")
		simd        = flag.Bool("simd", false, "Substitute vector instructions where tagged")
		threads     = flag.Bool("threads", false, "Emit shared memory")
		streaming   = flag.Bool("streaming", false, "Instantiate via the streaming path")
		cacheDir    = flag.String("cache", "", "Compilation cache directory")
		pages       = flag.Uint("pages", 0, "Initial memory pages (0 = one page)")
		maxPages    = flag.Uint("max-pages", 0, "Maximum memory pages (0 = unbounded)")
		debugNames  = flag.Bool("names", false, "Attach a debug name section")
		moduleName  = flag.String("module-name", "", "Module name recorded in the name section")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			codegen.SetLogger(l)
			engine.SetLogger(l)
		}
	}

	opts := wasmcompiler.Options{
		Optimize:       *optimizeTr,
		SIMD:           *simd,
		Threads:        *threads,
		Streaming:      *streaming,
		CacheDir:       *cacheDir,
		MemoryPages:    uint32(*pages),
		MaxMemoryPages: uint32(*maxPages),
		DebugNames:     *debugNames,
		ModuleName:     *moduleName,
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*programFile, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *programFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: basicc -program <file.json> [-o out.wasm] [-O] [-dump] [-stats]")
		fmt.Fprintln(os.Stderr, "       basicc -program <file.json> -run [-func name] [-args 2,3]")
		fmt.Fprintln(os.Stderr, "       basicc -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(*programFile, *outFile, *funcName, *argList, opts, *runProg, *dump, *listFuncs, *showStats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(programFile, outFile, funcName, argList string, opts wasmcompiler.Options, runProg, dump, listFuncs, showStats bool) error {
	ctx := context.Background()

	prog, err := loadProgram(programFile)
	if err != nil {
		return err
	}

	data, stats, err := wasmcompiler.Compile(ctx, prog, opts)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	fmt.Printf("Program: %s\n", programFile)
	fmt.Printf("Binary: %d bytes, %d functions\n", stats.BinarySize, stats.Functions)

	if showStats {
		printStats(stats)
	}

	if dump {
		m, err := wasm.ParseModule(data)
		if err != nil {
			return fmt.Errorf("parse emitted binary: %w", err)
		}
		fmt.Println()
		fmt.Print(wasm.Disassemble(m))
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outFile, err)
		}
		fmt.Printf("Wrote %s\n", outFile)
	}

	if !runProg && !listFuncs {
		return nil
	}

	e, err := engine.NewWithConfig(ctx, engine.Config{
		Threads:  opts.Threads,
		CacheDir: opts.CacheDir,
	})
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer e.Close(ctx)

	var inst *engine.Instance
	if opts.Streaming {
		inst, err = e.InstantiateStreaming(ctx, bytes.NewReader(data))
	} else {
		inst, err = e.Instantiate(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer inst.Close(ctx)

	if listFuncs {
		fmt.Println("\nExported functions:")
		for _, name := range inst.Functions() {
			fmt.Printf("  %s\n", formatSignature(inst, name))
		}
		if !runProg {
			return nil
		}
	}

	if funcName == "" {
		funcName = "main"
	}

	params, results, ok := inst.Signature(funcName)
	if !ok {
		return fmt.Errorf("no exported function %q (use -list to see exports)", funcName)
	}
	args, err := packArgs(argList, params)
	if err != nil {
		return err
	}

	fmt.Printf("\nCalling %s(%s)...\n", funcName, argList)
	raw, err := inst.Call(ctx, funcName, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}

	if len(results) == 0 {
		fmt.Printf("%s returned\n", funcName)
		return nil
	}
	fmt.Printf("Result: %s\n", formatValue(raw[0], results[0]))
	return nil
}

// loadProgram reads a JSON program tree. A missing program name falls
// back to the file's base name.
func loadProgram(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	var prog ast.Program
	if err := json.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("parse program: %w", err)
	}
	if prog.Name == "" {
		prog.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &prog, nil
}

func printStats(stats wasmcompiler.Stats) {
	fmt.Printf("Types: %d  Globals: %d  Data segments: %d  Interned strings: %d\n",
		stats.Types, stats.Globals, stats.DataSegments, stats.InternedStrings)
	if n := stats.DefaultedNames + stats.DefaultedCalls + stats.DefaultedExprs + stats.SkippedStmts; n > 0 {
		fmt.Printf("Degraded: %d names, %d calls, %d expressions, %d statements skipped\n",
			stats.DefaultedNames, stats.DefaultedCalls, stats.DefaultedExprs, stats.SkippedStmts)
	}
}

func formatSignature(inst *engine.Instance, name string) string {
	params, results, ok := inst.Signature(name)
	if !ok {
		return name
	}
	sig := name + "(" + strings.Join(params, ", ") + ")"
	if len(results) > 0 {
		sig += " -> " + strings.Join(results, ", ")
	}
	return sig
}

// packArgs converts comma-separated argument text into raw call values
// according to the function's parameter types.
func packArgs(raw string, params []string) ([]uint64, error) {
	var fields []string
	if raw != "" {
		fields = strings.Split(raw, ",")
	}
	if len(fields) != len(params) {
		return nil, fmt.Errorf("%d arguments given, function takes %d", len(fields), len(params))
	}
	out := make([]uint64, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		switch params[i] {
		case "f64":
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i+1, err)
			}
			out[i] = engine.F64(v)
		case "f32":
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i+1, err)
			}
			out[i] = engine.F32(float32(v))
		default:
			v, err := strconv.ParseInt(f, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i+1, err)
			}
			out[i] = engine.I32(int32(v))
		}
	}
	return out, nil
}

func formatValue(raw uint64, typ string) string {
	switch typ {
	case "f64":
		return strconv.FormatFloat(engine.AsF64(raw), 'g', -1, 64)
	case "f32":
		return strconv.FormatFloat(float64(engine.AsF32(raw)), 'g', -1, 32)
	default:
		return strconv.FormatInt(int64(engine.AsI32(raw)), 10)
	}
}
