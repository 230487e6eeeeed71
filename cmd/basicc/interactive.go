package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	wasmcompiler "github.com/basiclang/wasm-compiler"
	"github.com/basiclang/wasm-compiler/engine"
	"github.com/basiclang/wasm-compiler/wasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type explorerState int

const (
	statePickProgram explorerState = iota
	stateOptions
	stateDump
	stateFuncs
	stateArgs
	stateResult
)

type explorerModel struct {
	err      error
	callErr  error
	eng      *engine.Engine
	instance *engine.Instance
	file     string
	result   string
	opts     wasmcompiler.Options
	stats    wasmcompiler.Stats
	files    []string
	funcs    []funcEntry
	inputs   []textinput.Model
	view     viewport.Model
	selected int
	optIdx   int
	funcIdx  int
	focusIdx int
	ready    bool
	state    explorerState
}

type funcEntry struct {
	name    string
	params  []string
	results []string
}

type optionToggle struct {
	name string
	on   *bool
}

func newExplorerModel(file string, opts wasmcompiler.Options) *explorerModel {
	m := &explorerModel{file: file, opts: opts, state: statePickProgram}
	if file != "" {
		m.state = stateOptions
	}
	return m
}

// toggles exposes the options the picker can flip. The pointers alias
// m.opts so flipping takes effect on the next compile.
func (m *explorerModel) toggles() []optionToggle {
	return []optionToggle{
		{"Optimize", &m.opts.Optimize},
		{"SIMD", &m.opts.SIMD},
		{"Threads", &m.opts.Threads},
		{"Streaming", &m.opts.Streaming},
		{"Debug names", &m.opts.DebugNames},
	}
}

type programsMsg struct {
	err   error
	files []string
}

type compiledMsg struct {
	err     error
	eng     *engine.Engine
	inst    *engine.Instance
	listing string
	stats   wasmcompiler.Stats
	funcs   []funcEntry
}

type ranMsg struct {
	err    error
	result string
}

func (m *explorerModel) Init() tea.Cmd {
	if m.state == statePickProgram {
		return m.scanPrograms
	}
	return nil
}

func (m *explorerModel) scanPrograms() tea.Msg {
	entries, err := os.ReadDir(".")
	if err != nil {
		return programsMsg{err: err}
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return programsMsg{err: fmt.Errorf("no .json program files in the current directory")}
	}
	return programsMsg{files: files}
}

func (m *explorerModel) compile() tea.Msg {
	ctx := context.Background()

	prog, err := loadProgram(m.file)
	if err != nil {
		return compiledMsg{err: err}
	}

	data, stats, err := wasmcompiler.Compile(ctx, prog, m.opts)
	if err != nil {
		return compiledMsg{err: err}
	}

	parsed, err := wasm.ParseModule(data)
	if err != nil {
		return compiledMsg{err: err}
	}

	eng, err := engine.NewWithConfig(ctx, engine.Config{
		Threads:  m.opts.Threads,
		CacheDir: m.opts.CacheDir,
	})
	if err != nil {
		return compiledMsg{err: err}
	}

	var inst *engine.Instance
	if m.opts.Streaming {
		inst, err = eng.InstantiateStreaming(ctx, bytes.NewReader(data))
	} else {
		inst, err = eng.Instantiate(ctx, data)
	}
	if err != nil {
		eng.Close(ctx)
		return compiledMsg{err: err}
	}

	var funcs []funcEntry
	for _, name := range inst.Functions() {
		params, results, _ := inst.Signature(name)
		funcs = append(funcs, funcEntry{name: name, params: params, results: results})
	}

	return compiledMsg{
		eng:     eng,
		inst:    inst,
		listing: wasm.Disassemble(parsed),
		stats:   stats,
		funcs:   funcs,
	}
}

func (m *explorerModel) closeRuntime() {
	ctx := context.Background()
	if m.instance != nil {
		m.instance.Close(ctx)
		m.instance = nil
	}
	if m.eng != nil {
		m.eng.Close(ctx)
		m.eng = nil
	}
}

func (m *explorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 4
		if !m.ready {
			m.view = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = msg.Height - headerHeight
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.closeRuntime()
			return m, tea.Quit

		case "q":
			if m.state != stateArgs {
				m.closeRuntime()
				return m, tea.Quit
			}

		case "up", "k":
			switch m.state {
			case statePickProgram:
				if m.selected > 0 {
					m.selected--
				}
			case stateOptions:
				if m.optIdx > 0 {
					m.optIdx--
				}
			case stateFuncs:
				if m.funcIdx > 0 {
					m.funcIdx--
				}
			}

		case "down", "j":
			switch m.state {
			case statePickProgram:
				if m.selected < len(m.files)-1 {
					m.selected++
				}
			case stateOptions:
				if m.optIdx < len(m.toggles())-1 {
					m.optIdx++
				}
			case stateFuncs:
				if m.funcIdx < len(m.funcs)-1 {
					m.funcIdx++
				}
			}

		case " ":
			if m.state == stateOptions {
				t := m.toggles()[m.optIdx]
				*t.on = !*t.on
			}

		case "enter":
			switch m.state {
			case statePickProgram:
				if len(m.files) > 0 {
					m.file = m.files[m.selected]
					m.state = stateOptions
				}
			case stateOptions:
				m.err = nil
				return m, m.compile
			case stateFuncs:
				if len(m.funcs) == 0 {
					break
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateArgs
			case stateArgs:
				return m, m.callFunction
			case stateResult:
				m.state = stateFuncs
				m.result = ""
				m.callErr = nil
			}

		case "tab":
			if m.state == stateArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "f":
			if m.state == stateDump {
				m.state = stateFuncs
			}

		case "o":
			if m.state == stateDump {
				m.state = stateOptions
			}

		case "d":
			if m.state == stateFuncs || m.state == stateResult {
				m.state = stateDump
			}

		case "esc":
			switch m.state {
			case stateOptions:
				m.err = nil
			case stateDump:
				m.state = stateOptions
			case stateFuncs:
				m.state = stateDump
			case stateArgs:
				m.state = stateFuncs
				m.inputs = nil
			case stateResult:
				m.state = stateFuncs
				m.result = ""
				m.callErr = nil
			}
		}

	case programsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.files = msg.files

	case compiledMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.closeRuntime()
		m.eng = msg.eng
		m.instance = msg.inst
		m.stats = msg.stats
		m.funcs = msg.funcs
		m.funcIdx = 0
		m.view.SetContent(msg.listing)
		m.view.GotoTop()
		m.state = stateDump

	case ranMsg:
		m.result = msg.result
		m.callErr = msg.err
		m.state = stateResult
	}

	if m.state == stateArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	if m.state == stateDump {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *explorerModel) prepareInputs() {
	f := m.funcs[m.funcIdx]
	m.inputs = make([]textinput.Model, len(f.params))
	for i, p := range f.params {
		ti := textinput.New()
		ti.Placeholder = p
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *explorerModel) callFunction() tea.Msg {
	ctx := context.Background()
	if m.instance == nil {
		return ranMsg{err: fmt.Errorf("no instance loaded")}
	}

	f := m.funcs[m.funcIdx]
	args := make([]uint64, len(m.inputs))
	for i, input := range m.inputs {
		args[i] = packArg(input.Value(), f.params[i])
	}

	raw, err := m.instance.Call(ctx, f.name, args...)
	if err != nil {
		return ranMsg{err: err}
	}
	if len(f.results) == 0 {
		return ranMsg{result: "(no result)"}
	}
	return ranMsg{result: formatValue(raw[0], f.results[0])}
}

// packArg converts one argument leniently: unparseable text becomes the
// type's zero value, matching the compiler's degrade posture.
func packArg(value, typ string) uint64 {
	value = strings.TrimSpace(value)
	switch typ {
	case "f64":
		v, _ := strconv.ParseFloat(value, 64)
		return engine.F64(v)
	case "f32":
		v, _ := strconv.ParseFloat(value, 32)
		return engine.F32(float32(v))
	default:
		v, _ := strconv.ParseInt(value, 10, 32)
		return engine.I32(int32(v))
	}
}

func (m *explorerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("BASIC Compiler"))
	if m.file != "" {
		b.WriteString(" ")
		b.WriteString(m.file)
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("esc clear • q quit"))
		return b.String()
	}

	switch m.state {
	case statePickProgram:
		if len(m.files) == 0 {
			b.WriteString("Scanning for programs...")
			break
		}
		b.WriteString("Select a program:\n\n")
		for i, f := range m.files {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + f))
			} else {
				b.WriteString("  " + f)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter choose • q quit"))

	case stateOptions:
		b.WriteString("Compile options:\n\n")
		for i, t := range m.toggles() {
			box := "[ ] "
			if *t.on {
				box = "[x] "
			}
			line := box + t.name
			if i == m.optIdx {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • space toggle • enter compile • q quit"))

	case stateDump:
		b.WriteString(fmt.Sprintf("Binary: %d bytes, %d functions%s\n",
			m.stats.BinarySize, m.stats.Functions, degradedNote(m.stats)))
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • f functions • o options • q quit"))

	case stateFuncs:
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			if i == m.funcIdx {
				b.WriteString(selectedStyle.Render("> " + m.formatFunc(f)))
			} else {
				b.WriteString("  " + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • d disassembly • q quit"))

	case stateArgs:
		f := m.funcs[m.funcIdx]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(f.params[i]))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateResult:
		f := m.funcs[m.funcIdx]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.name)))
		if m.callErr != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.callErr)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • d disassembly • q quit"))
	}

	return b.String()
}

func (m *explorerModel) formatFunc(f funcEntry) string {
	var params []string
	for _, p := range f.params {
		params = append(params, typeStyle.Render(p))
	}
	sig := funcStyle.Render(f.name) + "(" + strings.Join(params, ", ") + ")"
	if len(f.results) > 0 {
		sig += " -> " + typeStyle.Render(strings.Join(f.results, ", "))
	}
	return sig
}

func degradedNote(stats wasmcompiler.Stats) string {
	n := stats.DefaultedNames + stats.DefaultedCalls + stats.DefaultedExprs + stats.SkippedStmts
	if n == 0 {
		return ""
	}
	return errorStyle.Render(fmt.Sprintf("  (%d degraded)", n))
}

func runInteractive(file string, opts wasmcompiler.Options) error {
	p := tea.NewProgram(newExplorerModel(file, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
