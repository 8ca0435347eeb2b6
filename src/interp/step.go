/*
 * CapivaraVM - A Java bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import "github.com/Mathweuzz/CapivaraVM/src/runtime"

// Snapshot is a frame's visible state at the instant just before an opcode
// executes -- enough for an interactive walker to render stack, locals and
// PC without reaching into runtime.Frame internals.
type Snapshot struct {
	ClassName  string
	MethodName string
	PC         int
	Opcode     byte
	Stack      []runtime.Value
	Locals     []runtime.Value
}

func snapshotFrame(frame *runtime.Frame, op byte) Snapshot {
	stack := make([]runtime.Value, frame.StackDepth())
	for i := range stack {
		stack[i] = frame.StackSlot(i)
	}
	locals := make([]runtime.Value, len(frame.Locals))
	copy(locals, frame.Locals)
	return Snapshot{
		ClassName:  frame.ClassName,
		MethodName: frame.MethodName,
		PC:         frame.PC,
		Opcode:     op,
		Stack:      stack,
		Locals:     locals,
	}
}

// StepController pauses a running frame before each opcode and hands its
// snapshot to a consumer running on another goroutine, resuming only once
// told to. It turns the otherwise free-running runFrame loop into something
// an interactive TUI can single-step.
type StepController struct {
	snapshots chan Snapshot
	resume    chan struct{}
}

// NewStepController returns a controller ready to be attached to an
// Interpreter's Step field before a method is executed.
func NewStepController() *StepController {
	return &StepController{
		snapshots: make(chan Snapshot),
		resume:    make(chan struct{}),
	}
}

// Snapshots yields one Snapshot per opcode, in execution order. The
// executing goroutine blocks after sending until Resume is called.
func (s *StepController) Snapshots() <-chan Snapshot { return s.snapshots }

// Resume lets the paused interpreter execute the opcode it last snapshotted
// and continue to the next one.
func (s *StepController) Resume() { s.resume <- struct{}{} }

func (s *StepController) before(frame *runtime.Frame, op byte) {
	s.snapshots <- snapshotFrame(frame, op)
	<-s.resume
}
