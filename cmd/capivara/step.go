/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Mathweuzz/CapivaraVM/src/classloader"
	"github.com/Mathweuzz/CapivaraVM/src/interp"
	"github.com/Mathweuzz/CapivaraVM/src/runtime"
)

var (
	stepClasspath string
	stepEntry     string
	stepDesc      string
)

var stepCmd = &cobra.Command{
	Use:   "step <main-class>",
	Short: "Interactively single-step a static method's bytecode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		os.Exit(stepMain(args[0], stepClasspath, stepEntry, stepDesc))
		return nil
	},
}

func init() {
	stepCmd.Flags().StringVar(&stepClasspath, "cp", ".", "classpath (directories separated by ':')")
	stepCmd.Flags().StringVar(&stepEntry, "entry", "main", "name of the static method to step through")
	stepCmd.Flags().StringVar(&stepDesc, "desc", "()I", "descriptor of the method to step through")
}

func stepMain(mainClassArg, cpFlag, entry, desc string) int {
	entries := classloader.SplitClassPath(cpFlag)
	if !validateClasspath(entries) {
		return exNoInput
	}
	mainBin := normalizeMainClass(mainClassArg)

	loader := classloader.New(classloader.NewClassPath(entries))
	vm := interp.New(loader)
	ctrl := interp.NewStepController()
	vm.Step = ctrl

	resultCh := make(chan stepRunResult, 1)
	go func() {
		res, err := vm.ExecuteStaticEntry(mainBin, entry, desc)
		resultCh <- stepRunResult{res: res, err: err}
	}()

	model := newStepModel(mainBin, entry, desc, ctrl, resultCh)
	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "capivara: %v\n", err)
		return exUnavailable
	}

	fm := finalModel.(*stepModel)
	if fm.runErr != nil {
		fmt.Fprintf(os.Stderr, "capivara: %v\n", fm.runErr)
		return exUnavailable
	}
	if fm.done && fm.result.IsInt {
		fmt.Printf("RET: %d\n", fm.result.IntValue)
	}
	return exOK
}

// stepRunResult carries the interpreter goroutine's outcome back to the TUI
// once the stepped method returns or fails.
type stepRunResult struct {
	res interp.ExecResult
	err error
}

type snapshotMsg interp.Snapshot
type runDoneMsg stepRunResult

type stepModel struct {
	mainClass, entry, desc string
	ctrl                   *interp.StepController
	resultCh               chan stepRunResult

	snapshot interp.Snapshot
	history  int
	done     bool
	result   interp.ExecResult
	runErr   error
}

func newStepModel(mainClass, entry, desc string, ctrl *interp.StepController, resultCh chan stepRunResult) *stepModel {
	return &stepModel{mainClass: mainClass, entry: entry, desc: desc, ctrl: ctrl, resultCh: resultCh}
}

func waitForSnapshot(ctrl *interp.StepController) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ctrl.Snapshots()
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func waitForDone(resultCh chan stepRunResult) tea.Cmd {
	return func() tea.Msg {
		return runDoneMsg(<-resultCh)
	}
}

func (m *stepModel) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.ctrl), waitForDone(m.resultCh))
}

func (m *stepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "n", "enter", " ":
			if !m.done {
				m.history++
				m.ctrl.Resume()
				return m, waitForSnapshot(m.ctrl)
			}
		}

	case snapshotMsg:
		m.snapshot = interp.Snapshot(msg)

	case runDoneMsg:
		m.done = true
		m.result = msg.res
		m.runErr = msg.err
		return m, tea.Quit
	}
	return m, nil
}

var (
	stepHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	stepLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	stepPCStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
)

func (m *stepModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", stepHeaderStyle.Render(fmt.Sprintf("capivara step -- %s.%s%s", m.mainClass, m.entry, m.desc)))
	b.WriteString(strings.Repeat("-", 60) + "\n")

	if m.done {
		if m.runErr != nil {
			fmt.Fprintf(&b, "finished with error: %v\n", m.runErr)
		} else if m.result.IsInt {
			fmt.Fprintf(&b, "finished: ireturn %d\n", m.result.IntValue)
		} else {
			b.WriteString("finished: return\n")
		}
		b.WriteString("\npress q to exit\n")
		return b.String()
	}

	snap := m.snapshot
	fmt.Fprintf(&b, "%s %s.%s  pc=%s  op=%s\n",
		stepLabelStyle.Render("frame"), snap.ClassName, snap.MethodName,
		stepPCStyle.Render(fmt.Sprintf("%d", snap.PC)), interp.OpcodeName(snap.Opcode))

	b.WriteString("\n" + stepLabelStyle.Render("operand stack (bottom -> top):") + "\n")
	if len(snap.Stack) == 0 {
		b.WriteString("  (empty)\n")
	}
	for i, v := range snap.Stack {
		fmt.Fprintf(&b, "  [%d] %s\n", i, formatValue(v))
	}

	b.WriteString("\n" + stepLabelStyle.Render("locals:") + "\n")
	for i, v := range snap.Locals {
		fmt.Fprintf(&b, "  %%%d = %s\n", i, formatValue(v))
	}

	b.WriteString("\npress n to step, q to quit\n")
	return b.String()
}

func formatValue(v runtime.Value) string {
	switch v.Tag {
	case runtime.TagInt:
		return fmt.Sprintf("int %d", v.I)
	case runtime.TagLong:
		return fmt.Sprintf("long %d", v.L)
	case runtime.TagFloat:
		return fmt.Sprintf("float %g", v.F)
	case runtime.TagDouble:
		return fmt.Sprintf("double %g", v.D)
	case runtime.TagRef:
		if v.Ref == runtime.NullRef {
			return "ref null"
		}
		return fmt.Sprintf("ref #%d", v.Ref)
	case runtime.TagTop:
		return "(top)"
	default:
		return "?"
	}
}
