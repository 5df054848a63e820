package bytecode

import "testing"

func TestMakeAndReadOperands(t *testing.T) {
	tests := []struct {
		op        Opcode
		operands  []int
		bytesRead int
	}{
		{OpConstant, []int{65534}, 2},
		{OpGetLocal, []int{255}, 1},
		{OpAssign, []int{65535, 1}, 3},
		{OpClosure, []int{1, 255}, 3},
	}

	for _, tt := range tests {
		instruction := Make(tt.op, tt.operands...)

		def, err := Lookup(byte(tt.op))
		if err != nil {
			t.Fatalf("definition not found: %s", err)
		}

		operandsRead, n := ReadOperands(def, instruction[1:])
		if n != tt.bytesRead {
			t.Fatalf("n wrong: want=%d, got=%d", tt.bytesRead, n)
		}

		for i, want := range tt.operands {
			if operandsRead[i] != want {
				t.Fatalf("operand %d wrong: want=%d, got=%d", i, want, operandsRead[i])
			}
		}
	}
}

func TestLookupUndefinedOpcode(t *testing.T) {
	_, err := Lookup(255)
	if err == nil {
		t.Fatal("expected an error for an undefined opcode")
	}
	if _, ok := err.(*ErrUndefinedOpcode); !ok {
		t.Fatalf("expected *ErrUndefinedOpcode, got %T", err)
	}
}
