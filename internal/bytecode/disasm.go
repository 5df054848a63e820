package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// Disassembler renders a Program's instruction stream and constant pool as
// human-readable text, for debugging.
type Disassembler struct {
	writer  io.Writer
	program *Program
}

// NewDisassembler builds a Disassembler that writes to w.
func NewDisassembler(program *Program, w io.Writer) *Disassembler {
	return &Disassembler{writer: w, program: program}
}

// Disassemble prints the full program: the constant pool followed by the
// top-level instruction stream, recursing into any CompiledFunction
// constants.
func (d *Disassembler) Disassemble() {
	fmt.Fprintf(d.writer, "Constants: %d, Instructions: %d bytes\n\n",
		len(d.program.Constants), len(d.program.Instructions))

	for i, constant := range d.program.Constants {
		if fn, ok := constant.(*CompiledFunction); ok {
			fmt.Fprintf(d.writer, "[%04d] CompiledFunction %s:\n", i, fn.Inspect())
			d.disassembleInstructions(fn.Instructions, "  ")
			continue
		}
		fmt.Fprintf(d.writer, "[%04d] %s\n", i, constant.Inspect())
	}

	fmt.Fprintf(d.writer, "\n== main ==\n")
	d.disassembleInstructions(d.program.Instructions, "")
}

// disassembleInstructions walks ins opcode by opcode, printing offset,
// mnemonic and decoded operands.
func (d *Disassembler) disassembleInstructions(ins Instructions, indent string) {
	for offset := 0; offset < len(ins); {
		def, err := Lookup(ins[offset])
		if err != nil {
			fmt.Fprintf(d.writer, "%sERROR: %s\n", indent, err)
			offset++
			continue
		}

		operands, read := ReadOperands(def, ins[offset+1:])
		fmt.Fprintf(d.writer, "%s%04d %s\n", indent, offset, formatInstruction(def, operands))

		offset += 1 + read
	}
}

func formatInstruction(def *Definition, operands []int) string {
	if len(def.OperandWidths) == 0 {
		return def.Name
	}

	parts := make([]string, len(operands))
	for i, o := range operands {
		parts[i] = fmt.Sprintf("%d", o)
	}
	return fmt.Sprintf("%s %s", def.Name, strings.Join(parts, " "))
}
