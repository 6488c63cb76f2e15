// snapshot.go - VM state snapshot for save/load and backstep

package piet

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	snapshotMagic   = "CVMS"
	snapshotVersion = 1
)

// VMSnapshot captures everything needed to restore a VM to an earlier point
// in its execution: instruction pointer, DP/CC/position, the stack, the
// input cursor, and accumulated output.
type VMSnapshot struct {
	InstructionIndex int
	Steps            int
	Halted           bool
	DP               Direction
	CC               CodelChooser
	Position         Position
	Stack            []int
	InputValues      []int
	InputPos         int
	OutputText       string
	OutputNumbers    []int
}

// TakeVMSnapshot captures vm's current state.
func TakeVMSnapshot(vm *VM) *VMSnapshot {
	return &VMSnapshot{
		InstructionIndex: vm.instrIndex,
		Steps:            vm.steps,
		Halted:           vm.halted,
		DP:               vm.dp,
		CC:               vm.cc,
		Position:         vm.pos,
		Stack:            append([]int(nil), vm.stack...),
		InputValues:      append([]int(nil), vm.input.values...),
		InputPos:         vm.input.pos,
		OutputText:       vm.output.String(),
		OutputNumbers:    vm.output.Numbers(),
	}
}

// RestoreVMSnapshot overwrites vm's state with snap's.
func RestoreVMSnapshot(vm *VM, snap *VMSnapshot) {
	vm.instrIndex = snap.InstructionIndex
	vm.steps = snap.Steps
	vm.halted = snap.Halted
	vm.dp = snap.DP
	vm.cc = snap.CC
	vm.pos = snap.Position
	vm.stack = append([]int(nil), snap.Stack...)
	vm.input.values = append([]int(nil), snap.InputValues...)
	vm.input.pos = snap.InputPos
	vm.output.Clear()
	vm.output.text.WriteString(snap.OutputText)
	vm.output.numbers = append([]int(nil), snap.OutputNumbers...)
	vm.needsInput = InputNone
}

func writeInts(w io.Writer, vals []int) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := binary.Write(w, binary.LittleEndian, int64(v)); err != nil {
			return err
		}
	}
	return nil
}

func readInts(r io.Reader) ([]int, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := range out {
		var v int64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, err
		}
		out[i] = int(v)
	}
	return out, nil
}

func writeString(w io.Writer, s string) error {
	b := []byte(s)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// SaveSnapshotToFile writes snap to path as a gzip-compressed binary blob
// behind a short magic-and-version header.
func SaveSnapshotToFile(snap *VMSnapshot, path string) error {
	var payload bytes.Buffer
	binary.Write(&payload, binary.LittleEndian, uint32(snap.InstructionIndex))
	binary.Write(&payload, binary.LittleEndian, uint32(snap.Steps))
	binary.Write(&payload, binary.LittleEndian, snap.Halted)
	binary.Write(&payload, binary.LittleEndian, uint8(snap.DP))
	binary.Write(&payload, binary.LittleEndian, uint8(snap.CC))
	binary.Write(&payload, binary.LittleEndian, int32(snap.Position.X))
	binary.Write(&payload, binary.LittleEndian, int32(snap.Position.Y))
	if err := writeInts(&payload, snap.Stack); err != nil {
		return fmt.Errorf("encoding stack: %w", err)
	}
	if err := writeInts(&payload, snap.InputValues); err != nil {
		return fmt.Errorf("encoding input: %w", err)
	}
	binary.Write(&payload, binary.LittleEndian, uint32(snap.InputPos))
	if err := writeString(&payload, snap.OutputText); err != nil {
		return fmt.Errorf("encoding output text: %w", err)
	}
	if err := writeInts(&payload, snap.OutputNumbers); err != nil {
		return fmt.Errorf("encoding output numbers: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(snapshotMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(snapshotVersion))

	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload.Bytes()); err != nil {
		return fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip: %w", err)
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadSnapshotFromFile reads and decompresses a snapshot previously written
// by SaveSnapshotToFile.
func LoadSnapshotFromFile(path string) (*VMSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(data)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != snapshotMagic {
		return nil, fmt.Errorf("invalid snapshot magic: %q", string(magic))
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", version)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gz.Close()

	var instrIndex, steps uint32
	var halted bool
	var dp, cc uint8
	var posX, posY int32
	if err := binary.Read(gz, binary.LittleEndian, &instrIndex); err != nil {
		return nil, fmt.Errorf("reading instruction index: %w", err)
	}
	if err := binary.Read(gz, binary.LittleEndian, &steps); err != nil {
		return nil, fmt.Errorf("reading steps: %w", err)
	}
	if err := binary.Read(gz, binary.LittleEndian, &halted); err != nil {
		return nil, fmt.Errorf("reading halted flag: %w", err)
	}
	if err := binary.Read(gz, binary.LittleEndian, &dp); err != nil {
		return nil, fmt.Errorf("reading dp: %w", err)
	}
	if err := binary.Read(gz, binary.LittleEndian, &cc); err != nil {
		return nil, fmt.Errorf("reading cc: %w", err)
	}
	if err := binary.Read(gz, binary.LittleEndian, &posX); err != nil {
		return nil, fmt.Errorf("reading position x: %w", err)
	}
	if err := binary.Read(gz, binary.LittleEndian, &posY); err != nil {
		return nil, fmt.Errorf("reading position y: %w", err)
	}
	stack, err := readInts(gz)
	if err != nil {
		return nil, fmt.Errorf("reading stack: %w", err)
	}
	inputValues, err := readInts(gz)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	var inputPos uint32
	if err := binary.Read(gz, binary.LittleEndian, &inputPos); err != nil {
		return nil, fmt.Errorf("reading input position: %w", err)
	}
	outputText, err := readString(gz)
	if err != nil {
		return nil, fmt.Errorf("reading output text: %w", err)
	}
	outputNumbers, err := readInts(gz)
	if err != nil {
		return nil, fmt.Errorf("reading output numbers: %w", err)
	}

	return &VMSnapshot{
		InstructionIndex: int(instrIndex),
		Steps:            int(steps),
		Halted:           halted,
		DP:               Direction(dp),
		CC:               CodelChooser(cc),
		Position:         Position{X: int(posX), Y: int(posY)},
		Stack:            stack,
		InputValues:      inputValues,
		InputPos:         int(inputPos),
		OutputText:       outputText,
		OutputNumbers:    outputNumbers,
	}, nil
}
