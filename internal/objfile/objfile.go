// Package objfile implements glox's compiled bytecode object file format:
// ".gbc" files, a binary serialization of a single chunk.Chunk that lets
// cmd/glox cache the result of compiling a source file and later run it
// without re-parsing or re-compiling.
//
// File Format Layout:
//
//   [Header]
//     Magic number (4 bytes): "GLOX" (0x474C4F58)
//     Format version (4 bytes): currently 1
//     Build ID (16 bytes): a random uuid.UUID stamped at Encode time,
//       identifying the specific compile that produced the file
//
//   [Constants section]
//     Count (4 bytes)
//     For each constant: a 1-byte type tag followed by type-specific data
//
//   [Code section]
//     Count (4 bytes): number of bytes in the instruction stream
//     Code bytes, followed by one int32 per byte giving its source line
//
// Constant Types:
//   0x01 = Nil (0 bytes)
//   0x02 = Bool (1 byte: 0 or 1)
//   0x03 = Number (float64, 8 bytes)
//   0x04 = String (4-byte length + UTF-8 bytes)
//   0x05 = Function (name as a 0x04 String constant, int32 arity, int32
//          upvalue count, then its own Constants and Code sections)
//
// A compiled program is really a tree of chunks: nested function chunks
// are reached through OpClosure operands referencing Function constants
// in their *enclosing* chunk, recursively. This is a single-chunk
// snapshot format, not a linker, so Encode/Decode handle that tree by
// recursing into Function constants the same way smog's .sg format
// recurses into nested *Bytecode constants.
package objfile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"

	"glox/internal/chunk"
	"glox/internal/object"
	"glox/internal/value"
)

// MagicNumber is the file signature for .gbc files: "GLOX".
const MagicNumber uint32 = 0x474C4F58

// FormatVersion is the current .gbc format version.
const FormatVersion uint32 = 1

const (
	constTypeNil    byte = 0x01
	constTypeBool   byte = 0x02
	constTypeNumber byte = 0x03
	constTypeString byte = 0x04
	constTypeFunc   byte = 0x05
)

// Header is the decoded form of a .gbc file's fixed-size preamble.
type Header struct {
	Version uint32
	BuildID uuid.UUID
}

// Encode serializes c to w as a .gbc file, stamping a fresh random build
// ID into the header.
func Encode(c *chunk.Chunk, w io.Writer) error {
	buildID := uuid.New()
	if err := writeHeader(w, buildID); err != nil {
		return fmt.Errorf("objfile: write header: %w", err)
	}
	return encodeChunk(c, w)
}

func encodeChunk(c *chunk.Chunk, w io.Writer) error {
	if err := writeConstants(w, c.Constants); err != nil {
		return fmt.Errorf("objfile: write constants: %w", err)
	}
	if err := writeCode(w, c); err != nil {
		return fmt.Errorf("objfile: write code: %w", err)
	}
	return nil
}

// Decode reads a .gbc file from r and reconstructs its chunk, along with
// the header information stamped at Encode time.
func Decode(r io.Reader) (*chunk.Chunk, *Header, error) {
	hdr, err := readHeader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("objfile: read header: %w", err)
	}
	c, err := decodeChunk(r)
	if err != nil {
		return nil, nil, fmt.Errorf("objfile: read chunk: %w", err)
	}
	return c, hdr, nil
}

func decodeChunk(r io.Reader) (*chunk.Chunk, error) {
	constants, err := readConstants(r)
	if err != nil {
		return nil, fmt.Errorf("read constants: %w", err)
	}
	code, lines, err := readCode(r)
	if err != nil {
		return nil, fmt.Errorf("read code: %w", err)
	}
	c := chunk.New()
	for i, b := range code {
		c.Write(b, lines[i])
	}
	for _, v := range constants {
		if _, ok := c.AddConstant(v); !ok {
			return nil, fmt.Errorf("decoded chunk exceeds %d constants", chunk.MaxConstants)
		}
	}
	return c, nil
}

func writeHeader(w io.Writer, buildID uuid.UUID) error {
	if err := binary.Write(w, binary.BigEndian, MagicNumber); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, FormatVersion); err != nil {
		return err
	}
	_, err := w.Write(buildID[:])
	return err
}

func readHeader(r io.Reader) (*Header, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, err
	}
	if magic != MagicNumber {
		return nil, fmt.Errorf("not a .gbc file: bad magic number 0x%08X", magic)
	}
	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("unsupported .gbc version: %d (expected %d)", version, FormatVersion)
	}
	var idBytes [16]byte
	if _, err := io.ReadFull(r, idBytes[:]); err != nil {
		return nil, err
	}
	id, err := uuid.FromBytes(idBytes[:])
	if err != nil {
		return nil, err
	}
	return &Header{Version: version, BuildID: id}, nil
}

func writeConstants(w io.Writer, constants []value.Value) error {
	count := uint32(len(constants))
	if err := binary.Write(w, binary.BigEndian, count); err != nil {
		return err
	}
	for i, v := range constants {
		if err := writeConstant(w, v); err != nil {
			return fmt.Errorf("constant %d: %w", i, err)
		}
	}
	return nil
}

func writeConstant(w io.Writer, v value.Value) error {
	switch val := v.(type) {
	case nil:
		_, err := w.Write([]byte{constTypeNil})
		return err
	case bool:
		b := byte(0)
		if val {
			b = 1
		}
		_, err := w.Write([]byte{constTypeBool, b})
		return err
	case float64:
		if _, err := w.Write([]byte{constTypeNumber}); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, val)
	case string:
		if _, err := w.Write([]byte{constTypeString}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(len(val))); err != nil {
			return err
		}
		_, err := w.Write([]byte(val))
		return err
	case *object.Function:
		if _, err := w.Write([]byte{constTypeFunc}); err != nil {
			return err
		}
		return encodeFunction(val, w)
	default:
		return fmt.Errorf("value of type %T cannot be stored in a .gbc constant pool", v)
	}
}

func readConstants(r io.Reader) ([]value.Value, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	constants := make([]value.Value, count)
	for i := range constants {
		v, err := readConstant(r)
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		constants[i] = v
	}
	return constants, nil
}

func readConstant(r io.Reader) (value.Value, error) {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, err
	}
	switch tag[0] {
	case constTypeNil:
		return nil, nil
	case constTypeBool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case constTypeNumber:
		var f float64
		if err := binary.Read(r, binary.BigEndian, &f); err != nil {
			return nil, err
		}
		return f, nil
	case constTypeString:
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		return string(buf), nil
	case constTypeFunc:
		return decodeFunction(r)
	default:
		return nil, fmt.Errorf("unknown constant type tag 0x%02X", tag[0])
	}
}

// encodeFunction writes a nested function constant: its name, arity,
// upvalue count, and its own chunk (recursively).
func encodeFunction(fn *object.Function, w io.Writer) error {
	if err := writeConstant(w, fn.Name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, int32(fn.Arity)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, int32(fn.UpvalueCount)); err != nil {
		return err
	}
	return encodeChunk(fn.Chunk, w)
}

func decodeFunction(r io.Reader) (*object.Function, error) {
	nameVal, err := readConstant(r)
	if err != nil {
		return nil, err
	}
	name, _ := nameVal.(string)

	var arity, upvalueCount int32
	if err := binary.Read(r, binary.BigEndian, &arity); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &upvalueCount); err != nil {
		return nil, err
	}
	c, err := decodeChunk(r)
	if err != nil {
		return nil, err
	}
	fn := object.NewFunction(name)
	fn.Arity = int(arity)
	fn.UpvalueCount = int(upvalueCount)
	fn.Chunk = c
	return fn, nil
}

func writeCode(w io.Writer, c *chunk.Chunk) error {
	count := uint32(c.Count())
	if err := binary.Write(w, binary.BigEndian, count); err != nil {
		return err
	}
	if _, err := w.Write(c.Code); err != nil {
		return err
	}
	for _, line := range c.Lines {
		if err := binary.Write(w, binary.BigEndian, int32(line)); err != nil {
			return err
		}
	}
	return nil
}

func readCode(r io.Reader) ([]byte, []int, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, nil, err
	}
	code := make([]byte, count)
	if _, err := io.ReadFull(r, code); err != nil {
		return nil, nil, err
	}
	lines := make([]int, count)
	for i := range lines {
		var line int32
		if err := binary.Read(r, binary.BigEndian, &line); err != nil {
			return nil, nil, err
		}
		lines[i] = int(line)
	}
	return code, lines, nil
}
