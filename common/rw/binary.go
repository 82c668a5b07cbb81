package rw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var ErrShortRead = errors.New("rw: unexpected end of data")

// ReaderWriter is a little endian buffer. The first failure sticks: later
// reads return zero values and Err reports it.
type ReaderWriter struct {
	order   binary.ByteOrder
	dataBuf [8]byte
	rw      bytes.Buffer
	err     error
}

func NewBinWriter() *ReaderWriter {
	return &ReaderWriter{order: binary.LittleEndian}
}

func NewBinReader(data []byte) *ReaderWriter {
	d := &ReaderWriter{order: binary.LittleEndian}
	d.rw.Write(data)
	return d
}

func (w *ReaderWriter) Err() error { return w.err }

func (w *ReaderWriter) read(n int) []byte {
	if w.err != nil {
		return nil
	}
	buf := w.dataBuf[:n]
	if got, _ := w.rw.Read(buf); got != n {
		w.err = fmt.Errorf("%w: want %d bytes, got %d", ErrShortRead, n, got)
		return nil
	}
	return buf
}

func (w *ReaderWriter) ReadUInt32() uint32 {
	buf := w.read(4)
	if buf == nil {
		return 0
	}
	return w.order.Uint32(buf)
}

func (w *ReaderWriter) ReadInt32() int32 {
	return int32(w.ReadUInt32())
}

func (w *ReaderWriter) ReadInt32s(value []int32) {
	for i := range value {
		value[i] = w.ReadInt32()
	}
}

func (w *ReaderWriter) ReadFloat64() float64 {
	buf := w.read(8)
	if buf == nil {
		return 0
	}
	return math.Float64frombits(w.order.Uint64(buf))
}

func (w *ReaderWriter) ReadFloat64s(value []float64) {
	for i := range value {
		value[i] = w.ReadFloat64()
	}
}

// ReadCount reads a length prefix and rejects values that cannot fit in the
// remaining data at elemSize bytes each.
func (w *ReaderWriter) ReadCount(elemSize int) int {
	n := int(w.ReadUInt32())
	if w.err == nil && n*elemSize > w.rw.Len() {
		w.err = fmt.Errorf("%w: count %d exceeds %d remaining bytes", ErrShortRead, n, w.rw.Len())
		return 0
	}
	return n
}

func (w *ReaderWriter) WriteUInt32(v uint32) {
	w.order.PutUint32(w.dataBuf[:4], v)
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteInt32(v int32) {
	w.WriteUInt32(uint32(v))
}

func (w *ReaderWriter) WriteInt32s(v []int32) {
	for _, x := range v {
		w.WriteInt32(x)
	}
}

func (w *ReaderWriter) WriteFloat64(v float64) {
	w.order.PutUint64(w.dataBuf[:8], math.Float64bits(v))
	w.rw.Write(w.dataBuf[:8])
}

func (w *ReaderWriter) WriteFloat64s(v []float64) {
	for _, x := range v {
		w.WriteFloat64(x)
	}
}

func (w *ReaderWriter) WriteString(s string) {
	w.rw.WriteString(s)
}

func (w *ReaderWriter) GetWriteBytes() []byte {
	return w.rw.Bytes()
}

// Size is the number of unread bytes.
func (w *ReaderWriter) Size() int {
	return w.rw.Len()
}
