package binary

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	if r.Position() != 3 {
		t.Errorf("final position: got %d, want 3", r.Position())
	}

	_, err := r.ReadByte()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReaderReadBytes(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(data)

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}

	if r.Position() != 3 {
		t.Errorf("position: got %d, want 3", r.Position())
	}
	if r.Remaining() != 2 {
		t.Errorf("remaining: got %d, want 2", r.Remaining())
	}

	_, err = r.ReadBytes(10)
	if err == nil {
		t.Error("expected error for reading past EOF")
	}
}

func TestReaderReadU32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadU32()
		if err != nil {
			t.Errorf("ReadU32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadU32Overflow(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	r := NewReader(data)
	_, err := r.ReadU32()
	if err == nil {
		t.Error("expected overflow error")
	}
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestReaderReadU64(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadU64()
		if err != nil {
			t.Errorf("ReadU64(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU64(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadS32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0xbf, 0x7f}, -65},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadS32()
		if err != nil {
			t.Errorf("ReadS32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadS32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadS64(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadS64()
		if err != nil {
			t.Errorf("ReadS64(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadS64(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadName(t *testing.T) {
	w := NewWriter()
	w.WriteName("hello")

	r := NewReader(w.Bytes())
	got, err := r.ReadName()
	if err != nil {
		t.Fatalf("ReadName: %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadName: got %q, want %q", got, "hello")
	}
}

func TestReaderReadNameInvalidUTF8(t *testing.T) {
	data := []byte{0x02, 0xff, 0xfe}
	r := NewReader(data)
	_, err := r.ReadName()
	if err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}

func TestReaderReadFixedU32(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	r := NewReader(data)
	got, err := r.ReadFixedU32()
	if err != nil {
		t.Fatalf("ReadFixedU32: %v", err)
	}
	want := uint32(0x04030201)
	if got != want {
		t.Errorf("ReadFixedU32: got 0x%08x, want 0x%08x", got, want)
	}
}

func TestReaderReadFloats(t *testing.T) {
	w := NewWriter()
	w.WriteF32(3.5)
	w.WriteF64(-2.25)

	r := NewReader(w.Bytes())
	f32, err := r.ReadF32()
	if err != nil {
		t.Fatalf("ReadF32: %v", err)
	}
	if f32 != 3.5 {
		t.Errorf("ReadF32: got %v, want 3.5", f32)
	}
	f64, err := r.ReadF64()
	if err != nil {
		t.Fatalf("ReadF64: %v", err)
	}
	if f64 != -2.25 {
		t.Errorf("ReadF64: got %v, want -2.25", f64)
	}
}

func TestReaderReadF64NaN(t *testing.T) {
	w := NewWriter()
	w.WriteF64(math.NaN())

	r := NewReader(w.Bytes())
	f64, err := r.ReadF64()
	if err != nil {
		t.Fatalf("ReadF64: %v", err)
	}
	if !math.IsNaN(f64) {
		t.Errorf("ReadF64: got %v, want NaN", f64)
	}
}

func TestReaderWrapError(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	r.ReadByte()
	r.ReadByte()

	err := r.WrapError("test section", errors.New("test error"))
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Offset != 2 {
		t.Errorf("Offset: got %d, want 2", pe.Offset)
	}
	if pe.Section != "test section" {
		t.Errorf("Section: got %q, want %q", pe.Section, "test section")
	}
	if pe.Err.Error() != "test error" {
		t.Errorf("Err: got %q, want %q", pe.Err.Error(), "test error")
	}

	errStr := pe.Error()
	if errStr != "wasm: test section section at offset 2: test error" {
		t.Errorf("Error(): got %q", errStr)
	}
}

func TestParseErrorNoSection(t *testing.T) {
	pe := &ParseError{Offset: 5, Err: errors.New("some error")}
	errStr := pe.Error()
	if errStr != "wasm: at offset 5: some error" {
		t.Errorf("Error(): got %q", errStr)
	}
}

func TestParseErrorUnwrap(t *testing.T) {
	inner := errors.New("inner error")
	pe := &ParseError{Offset: 10, Section: "type", Err: inner}
	if !errors.Is(pe.Unwrap(), inner) {
		t.Error("Unwrap should return inner error")
	}
}

func TestWriterBasic(t *testing.T) {
	w := NewWriter()
	if w.Len() != 0 {
		t.Errorf("initial Len: got %d, want 0", w.Len())
	}

	w.WriteByte(0x42)
	if w.Len() != 1 {
		t.Errorf("Len after WriteByte: got %d, want 1", w.Len())
	}

	w.WriteBytes([]byte{0x01, 0x02, 0x03})
	if w.Len() != 4 {
		t.Errorf("Len after WriteBytes: got %d, want 4", w.Len())
	}

	got := w.Bytes()
	want := []byte{0x42, 0x01, 0x02, 0x03}
	if !bytes.Equal(got, want) {
		t.Errorf("Bytes: got %v, want %v", got, want)
	}
}

func TestWriterWriteU32(t *testing.T) {
	tests := []struct {
		want  []byte
		value uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteU32(tt.value)
		got := w.Bytes()
		if !bytes.Equal(got, tt.want) {
			t.Errorf("WriteU32(%d): got %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestWriterWriteU64(t *testing.T) {
	tests := []struct {
		want  []byte
		value uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteU64(tt.value)
		got := w.Bytes()
		if !bytes.Equal(got, tt.want) {
			t.Errorf("WriteU64(%d): got %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestWriterWriteS32(t *testing.T) {
	tests := []struct {
		want  []byte
		value int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0xbf, 0x7f}, -65},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteS32(tt.value)
		got := w.Bytes()
		if !bytes.Equal(got, tt.want) {
			t.Errorf("WriteS32(%d): got %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestWriterWriteS64(t *testing.T) {
	tests := []struct {
		want  []byte
		value int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0xbf, 0x7f}, -65},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteS64(tt.value)
		got := w.Bytes()
		if !bytes.Equal(got, tt.want) {
			t.Errorf("WriteS64(%d): got %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestWriterWriteName(t *testing.T) {
	w := NewWriter()
	w.WriteName("test")
	got := w.Bytes()
	want := []byte{0x04, 't', 'e', 's', 't'}
	if !bytes.Equal(got, want) {
		t.Errorf("WriteName: got %v, want %v", got, want)
	}
}

func TestWriterWriteFixedU32(t *testing.T) {
	w := NewWriter()
	w.WriteFixedU32(0x04030201)
	got := w.Bytes()
	want := []byte{0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(got, want) {
		t.Errorf("WriteFixedU32: got %v, want %v", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU32(12345)
	w.WriteS64(-9876)
	w.WriteName("roundtrip")
	w.WriteFixedU32(0xDEADBEEF)

	r := NewReader(w.Bytes())

	u32, err := r.ReadU32()
	if err != nil {
		t.Fatalf("ReadU32: %v", err)
	}
	if u32 != 12345 {
		t.Errorf("ReadU32: got %d, want 12345", u32)
	}

	s64, err := r.ReadS64()
	if err != nil {
		t.Fatalf("ReadS64: %v", err)
	}
	if s64 != -9876 {
		t.Errorf("ReadS64: got %d, want -9876", s64)
	}

	name, err := r.ReadName()
	if err != nil {
		t.Fatalf("ReadName: %v", err)
	}
	if name != "roundtrip" {
		t.Errorf("ReadName: got %q, want %q", name, "roundtrip")
	}

	fixed, err := r.ReadFixedU32()
	if err != nil {
		t.Fatalf("ReadFixedU32: %v", err)
	}
	if fixed != 0xDEADBEEF {
		t.Errorf("ReadFixedU32: got 0x%08x, want 0xDEADBEEF", fixed)
	}

	if r.Remaining() != 0 {
		t.Errorf("Remaining: got %d, want 0", r.Remaining())
	}
}

func TestReaderReadU32Truncated(t *testing.T) {
	// LEB128 that needs more bytes but EOF
	data := []byte{0x80}
	r := NewReader(data)
	_, err := r.ReadU32()
	if err == nil {
		t.Error("expected error for truncated LEB128")
	}
}

func TestReaderReadU64Overflow(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	r := NewReader(data)
	_, err := r.ReadU64()
	if err == nil {
		t.Error("expected overflow error")
	}
}

func TestReaderReadS32Overflow(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	r := NewReader(data)
	_, err := r.ReadS32()
	if err == nil {
		t.Error("expected overflow error")
	}
}

func TestReaderReadS64Overflow(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	r := NewReader(data)
	_, err := r.ReadS64()
	if err == nil {
		t.Error("expected overflow error")
	}
}

func TestReaderReadNameTruncated(t *testing.T) {
	// Name length says 5 but only 2 bytes available
	data := []byte{0x05, 0x61, 0x62}
	r := NewReader(data)
	_, err := r.ReadName()
	if err == nil {
		t.Error("expected error for truncated name")
	}
}

func TestReaderReadFixedU32Truncated(t *testing.T) {
	data := []byte{0x01, 0x02}
	r := NewReader(data)
	_, err := r.ReadFixedU32()
	if err == nil {
		t.Error("expected error for truncated fixed u32")
	}
}
