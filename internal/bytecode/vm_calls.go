package bytecode

// pushClosure pops numFree values off the stack (pushed by the compiler in
// capture order), wraps constants[constIndex] — which must be a
// CompiledFunction — into a Closure snapshotting those values by value (a
// copy of the slots, no shared upvalue cells), and pushes the Closure.
func (vm *VM) pushClosure(constIndex, numFree int) *RuntimeError {
	constant := vm.constants[constIndex]
	function, ok := constant.(*CompiledFunction)
	if !ok {
		return vm.err(CustomErrMsg, "not a function: %s", constant.Inspect())
	}

	free := make([]Object, numFree)
	copy(free, vm.stack[vm.sp-numFree:vm.sp])
	vm.sp -= numFree

	return vm.push(&Closure{Fn: function, Free: free})
}

// executeCall dispatches a call by the type of the callee sitting numArgs
// slots below the current stack top: a Closure gets a new Frame, a Builtin
// is invoked directly and its result replaces the call's operand window.
func (vm *VM) executeCall(numArgs int) *RuntimeError {
	callee := vm.stack[vm.sp-1-numArgs]

	switch callee := callee.(type) {
	case *Closure:
		return vm.callClosure(callee, numArgs)
	case *Builtin:
		return vm.callBuiltin(callee, numArgs)
	default:
		return vm.callingNonFunction(callee)
	}
}

func (vm *VM) callClosure(cl *Closure, numArgs int) *RuntimeError {
	if numArgs != cl.Fn.NumParameters {
		return vm.wrongArgumentCount(cl.Fn.NumParameters, numArgs)
	}

	frame := NewFrame(cl, vm.sp-numArgs)
	if err := vm.pushFrame(frame); err != nil {
		return err
	}
	vm.sp = frame.basePointer + cl.Fn.NumLocals
	return nil
}

func (vm *VM) callBuiltin(builtin *Builtin, numArgs int) *RuntimeError {
	args := vm.stack[vm.sp-numArgs : vm.sp]

	result, err := builtin.Fn(args)
	if err != nil {
		if rerr, ok := err.(*RuntimeError); ok {
			return rerr
		}
		return vm.err(CustomErrMsg, "%s", err.Error())
	}

	vm.sp = vm.sp - numArgs - 1
	if result == nil {
		result = NullObject
	}
	return vm.push(result)
}

// executeAssign implements OpAssign: it overwrites the named local or global
// slot with the value on top of the operand stack, without popping it, so
// the new value stays as the expression's result. Whatever the slot held
// before is replaced; an Array or Hash in the slot is not written into
// element-wise, and no index or key operand is read from the stack.
func (vm *VM) executeAssign(index int, isLocal bool) *RuntimeError {
	value := vm.top()
	if value == nil {
		return vm.err(CustomErrMsg, "assign to empty stack")
	}
	if isLocal {
		frame := vm.currentFrame()
		vm.stack[frame.basePointer+index] = value
	} else {
		vm.setGlobal(index, value)
	}
	return nil
}
