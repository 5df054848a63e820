package bytecode

// Frame is the activation record for one call: the closure being executed,
// the instruction pointer within it, and the stack index of its first
// local (and first argument). Locals live on the operand stack above
// basePointer; there is no separate locals array.
type Frame struct {
	cl          *Closure
	ip          int
	basePointer int
}

// NewFrame builds a Frame for cl, with locals starting at basePointer.
// ip starts at -1 so the dispatch loop's pre-increment lands on 0 for the
// first fetched instruction.
func NewFrame(cl *Closure, basePointer int) *Frame {
	return &Frame{cl: cl, ip: -1, basePointer: basePointer}
}

// Instructions returns the bytecode of the function this frame executes.
func (f *Frame) Instructions() Instructions {
	return f.cl.Fn.Instructions
}
