package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Bytecode file format (.orrc)
// ============================
//
// Header (8 bytes):
//   - Magic number: "ORRC" (4 bytes)
//   - Version major/minor/patch: uint8 each (3 bytes)
//   - Reserved: uint8 (1 byte)
//
// Body:
//   - Instructions: uint32 length, then raw bytes
//   - Constants: uint32 count, then each constant tagged and encoded
//
// Only Integer, String and CompiledFunction constants are supported. A
// CompiledFunction is stored as its name, uint32 local and parameter
// counts, and its length-prefixed instructions; it carries no constants of
// its own.

const (
	magicNumber = "ORRC"

	versionMajor = 1
	versionMinor = 0
	versionPatch = 0
)

const (
	constTagInteger byte = iota
	constTagString
	constTagCompiledFunction
)

// Serializer (de)serializes a Program to and from the .orrc binary format.
type Serializer struct{}

// NewSerializer builds a Serializer for the current format version.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Serialize encodes program into the .orrc binary format.
func (s *Serializer) Serialize(program *Program) ([]byte, error) {
	buf := new(bytes.Buffer)

	buf.WriteString(magicNumber)
	buf.WriteByte(versionMajor)
	buf.WriteByte(versionMinor)
	buf.WriteByte(versionPatch)
	buf.WriteByte(0)

	if err := writeBytes(buf, program.Instructions); err != nil {
		return nil, err
	}
	if err := writeConstants(buf, program.Constants); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Deserialize decodes data, previously produced by Serialize, back into a
// Program.
func (s *Serializer) Deserialize(data []byte) (*Program, error) {
	buf := bytes.NewReader(data)

	header := make([]byte, 4)
	if _, err := buf.Read(header); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(header) != magicNumber {
		return nil, fmt.Errorf("not an orrery bytecode file: bad magic %q", header)
	}

	version := make([]byte, 4)
	if _, err := buf.Read(version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version[0] != versionMajor {
		return nil, fmt.Errorf("incompatible bytecode version %d.%d.%d", version[0], version[1], version[2])
	}

	instructions, err := readBytes(buf)
	if err != nil {
		return nil, fmt.Errorf("read instructions: %w", err)
	}

	constants, err := readConstants(buf)
	if err != nil {
		return nil, fmt.Errorf("read constants: %w", err)
	}

	return &Program{Instructions: instructions, Constants: constants}, nil
}

func writeBytes(buf *bytes.Buffer, b []byte) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readBytes(buf *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(buf, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := buf.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeString(buf *bytes.Buffer, str string) error {
	return writeBytes(buf, []byte(str))
}

func readString(buf *bytes.Reader) (string, error) {
	b, err := readBytes(buf)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeConstants(buf *bytes.Buffer, constants []Object) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(constants))); err != nil {
		return err
	}
	for _, c := range constants {
		if err := writeConstant(buf, c); err != nil {
			return err
		}
	}
	return nil
}

func writeConstant(buf *bytes.Buffer, c Object) error {
	switch v := c.(type) {
	case *Integer:
		buf.WriteByte(constTagInteger)
		return binary.Write(buf, binary.BigEndian, v.Value)
	case *String:
		buf.WriteByte(constTagString)
		return writeString(buf, v.Value)
	case *CompiledFunction:
		buf.WriteByte(constTagCompiledFunction)
		if err := writeString(buf, v.Name); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.BigEndian, uint32(v.NumLocals)); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.BigEndian, uint32(v.NumParameters)); err != nil {
			return err
		}
		if err := writeBytes(buf, v.Instructions); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("cannot serialize constant of type %s", c.Type())
	}
}

func readConstants(buf *bytes.Reader) ([]Object, error) {
	var n uint32
	if err := binary.Read(buf, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	constants := make([]Object, n)
	for i := range constants {
		c, err := readConstant(buf)
		if err != nil {
			return nil, err
		}
		constants[i] = c
	}
	return constants, nil
}

func readConstant(buf *bytes.Reader) (Object, error) {
	tag, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case constTagInteger:
		var v int64
		if err := binary.Read(buf, binary.BigEndian, &v); err != nil {
			return nil, err
		}
		return &Integer{Value: v}, nil
	case constTagString:
		v, err := readString(buf)
		if err != nil {
			return nil, err
		}
		return &String{Value: v}, nil
	case constTagCompiledFunction:
		name, err := readString(buf)
		if err != nil {
			return nil, err
		}
		var numLocals, numParameters uint32
		if err := binary.Read(buf, binary.BigEndian, &numLocals); err != nil {
			return nil, err
		}
		if err := binary.Read(buf, binary.BigEndian, &numParameters); err != nil {
			return nil, err
		}
		instructions, err := readBytes(buf)
		if err != nil {
			return nil, err
		}
		return &CompiledFunction{
			Instructions:  instructions,
			NumLocals:     int(numLocals),
			NumParameters: int(numParameters),
			Name:          name,
		}, nil
	default:
		return nil, fmt.Errorf("unknown constant tag %d", tag)
	}
}
