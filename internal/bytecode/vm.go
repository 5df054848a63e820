// Package bytecode implements a stack-based bytecode virtual machine: the
// instruction set, the runtime value model, the call/return protocol with
// closures and upvalues, arithmetic/indexing semantics, and the
// constant/interning caches described as the focus of the Orrery language.
package bytecode

// Default VM configuration constants (spec §3, §5).
const (
	DefaultStackCapacity = 2048
	DefaultFrameCapacity = 1024
)

// Program is the compiler's output: a flat instruction stream and the
// constant pool it indexes into via OpConstant/OpClosure. The VM treats
// both as read-only.
type Program struct {
	Instructions Instructions
	Constants    []Object
}

// VM owns the operand stack, frame stack, globals vector, constants vector
// and the object caches, and runs the fetch-decode-dispatch loop that
// mutates them.
type VM struct {
	constants []Object
	stack     []Object
	sp        int

	globals []Object
	frames  []*Frame

	builtins []*Builtin
}

// New builds a VM for program with a fresh globals vector and the given
// builtin registry.
func New(program *Program, builtins []*Builtin) *VM {
	return NewWithGlobals(program, make([]Object, 0, 64), builtins)
}

// NewWithGlobals builds a VM for program reusing an externally held globals
// vector, letting a REPL persist bindings across separate compilations.
func NewWithGlobals(program *Program, globals []Object, builtins []*Builtin) *VM {
	mainFn := &CompiledFunction{Instructions: program.Instructions, Name: "<main>"}
	mainClosure := &Closure{Fn: mainFn}
	mainFrame := NewFrame(mainClosure, 0)

	frames := make([]*Frame, 0, DefaultFrameCapacity)
	frames = append(frames, mainFrame)

	return &VM{
		constants: program.Constants,
		stack:     make([]Object, DefaultStackCapacity),
		sp:        0,
		globals:   globals,
		frames:    frames,
		builtins:  builtins,
	}
}

func (vm *VM) currentFrame() *Frame {
	return vm.frames[len(vm.frames)-1]
}

func (vm *VM) pushFrame(f *Frame) *RuntimeError {
	if len(vm.frames) >= DefaultFrameCapacity {
		return vm.err(FrameOverflow, "frame stack overflow")
	}
	vm.frames = append(vm.frames, f)
	return nil
}

func (vm *VM) popFrame() *Frame {
	f := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	return f
}

// Run drives the fetch-decode-dispatch loop to completion. It returns the
// first RuntimeError encountered, or nil on success.
func (vm *VM) Run() error {
	for len(vm.frames) > 0 {
		frame := vm.currentFrame()
		ins := frame.Instructions()

		if frame.ip >= len(ins)-1 {
			// Fell off the end of a function body without an explicit
			// return; implicitly return Null, same as OpReturn.
			poppedFrame := vm.popFrame()
			if len(vm.frames) == 0 {
				break
			}
			vm.sp = poppedFrame.basePointer - 1
			if err := vm.push(NullObject); err != nil {
				return err
			}
			continue
		}

		frame.ip++
		ip := frame.ip
		op := Opcode(ins[ip])

		switch op {
		case OpConstant:
			constIndex := ReadUint16(ins[ip+1:])
			frame.ip += 2
			if err := vm.push(vm.constants[constIndex]); err != nil {
				return err
			}

		case OpPop:
			if _, err := vm.pop(); err != nil {
				return err
			}

		case OpAdd, OpSub, OpMul, OpDiv:
			if err := vm.executeBinaryOperation(op); err != nil {
				return err
			}

		case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterEq, OpLessThan, OpLessEq:
			if err := vm.executeComparison(op); err != nil {
				return err
			}

		case OpNot:
			if err := vm.executeNotOperator(); err != nil {
				return err
			}

		case OpMinus:
			if err := vm.executeMinusOperator(); err != nil {
				return err
			}

		case OpTrue:
			if err := vm.push(TrueObject); err != nil {
				return err
			}

		case OpFalse:
			if err := vm.push(FalseObject); err != nil {
				return err
			}

		case OpNull:
			if err := vm.push(NullObject); err != nil {
				return err
			}

		case OpJump:
			pos := int(ReadUint16(ins[ip+1:]))
			frame.ip = pos - 1

		case OpJumpIfNotTruthy:
			pos := int(ReadUint16(ins[ip+1:]))
			frame.ip += 2
			condition, err := vm.pop()
			if err != nil {
				return err
			}
			if !Truthy(condition) {
				frame.ip = pos - 1
			}

		case OpSetGlobal:
			globalIndex := int(ReadUint16(ins[ip+1:]))
			frame.ip += 2
			value, err := vm.pop()
			if err != nil {
				return err
			}
			vm.setGlobal(globalIndex, value)

		case OpGetGlobal:
			globalIndex := int(ReadUint16(ins[ip+1:]))
			frame.ip += 2
			if err := vm.push(vm.globals[globalIndex]); err != nil {
				return err
			}

		case OpSetLocal:
			localIndex := int(ins[ip+1])
			frame.ip++
			value, err := vm.pop()
			if err != nil {
				return err
			}
			vm.stack[frame.basePointer+localIndex] = value

		case OpGetLocal:
			localIndex := int(ins[ip+1])
			frame.ip++
			if err := vm.push(vm.stack[frame.basePointer+localIndex]); err != nil {
				return err
			}

		case OpAssign:
			index := int(ReadUint16(ins[ip+1:]))
			frame.ip += 2
			isLocal := ins[ip+3] != 0
			frame.ip++
			if err := vm.executeAssign(index, isLocal); err != nil {
				return err
			}

		case OpArray:
			numElements := int(ReadUint16(ins[ip+1:]))
			frame.ip += 2
			array := vm.buildArray(vm.sp-numElements, vm.sp)
			vm.sp -= numElements
			if err := vm.push(array); err != nil {
				return err
			}

		case OpHash:
			numElements := int(ReadUint16(ins[ip+1:]))
			frame.ip += 2
			hash, err := vm.buildHash(vm.sp-2*numElements, vm.sp)
			if err != nil {
				return err
			}
			vm.sp -= 2 * numElements
			if err := vm.push(hash); err != nil {
				return err
			}

		case OpIndex:
			index, err := vm.pop()
			if err != nil {
				return err
			}
			container, err := vm.pop()
			if err != nil {
				return err
			}
			result, ierr := vm.executeIndexExpression(container, index)
			if ierr != nil {
				return ierr
			}
			if err := vm.push(result); err != nil {
				return err
			}

		case OpGetBuiltin:
			builtinIndex := int(ins[ip+1])
			frame.ip++
			if err := vm.push(vm.builtins[builtinIndex]); err != nil {
				return err
			}

		case OpClosure:
			constIndex := int(ReadUint16(ins[ip+1:]))
			numFree := int(ins[ip+3])
			frame.ip += 3
			if err := vm.pushClosure(constIndex, numFree); err != nil {
				return err
			}

		case OpGetFree:
			freeIndex := int(ins[ip+1])
			frame.ip++
			if err := vm.push(frame.cl.Free[freeIndex]); err != nil {
				return err
			}

		case OpCall:
			numArgs := int(ins[ip+1])
			frame.ip++
			if err := vm.executeCall(numArgs); err != nil {
				return err
			}

		case OpReturnValue:
			returnValue, err := vm.pop()
			if err != nil {
				return err
			}
			poppedFrame := vm.popFrame()
			vm.sp = poppedFrame.basePointer - 1
			if err := vm.push(returnValue); err != nil {
				return err
			}

		case OpReturn:
			poppedFrame := vm.popFrame()
			vm.sp = poppedFrame.basePointer - 1
			if err := vm.push(NullObject); err != nil {
				return err
			}

		default:
			return vm.err(CustomErrMsg, "unhandled opcode %d", op)
		}
	}

	return nil
}

// LastPoppedStackElement returns the observed result of the program: the
// slot at the final sp (just above the last live slot), where the last popped value still
// sits since pop never clears the slot it vacates.
func (vm *VM) LastPoppedStackElement() Object {
	return vm.stack[vm.sp]
}

// Globals exposes the VM's global bindings vector so a REPL can thread it
// into the next compilation's VM via NewWithGlobals.
func (vm *VM) Globals() []Object {
	return vm.globals
}
