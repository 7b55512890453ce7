package haversine

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/getsentry/blockprof/internal/errorutil"
)

// Answers holds the reference distance of every pair and their average.
type Answers struct {
	Distances []float64
	Average   float64
}

// AnswerWriter writes an answers file: one little endian float64 per pair,
// then the average.
type AnswerWriter struct {
	w   *bufio.Writer
	buf [8]byte
}

func NewAnswerWriter(w io.Writer) *AnswerWriter {
	return &AnswerWriter{w: bufio.NewWriter(w)}
}

func (aw *AnswerWriter) Write(distance float64) error {
	binary.LittleEndian.PutUint64(aw.buf[:], math.Float64bits(distance))
	_, err := aw.w.Write(aw.buf[:])
	return err
}

// Close writes the trailing average and flushes.
func (aw *AnswerWriter) Close(average float64) error {
	if err := aw.Write(average); err != nil {
		return err
	}
	return aw.w.Flush()
}

// ReadAnswers reads an answers file written by AnswerWriter.
func ReadAnswers(r io.Reader) (Answers, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Answers{}, err
	}
	if len(data) == 0 || len(data)%8 != 0 {
		return Answers{}, fmt.Errorf("%w: answers file is %d bytes, want a non-zero multiple of 8", errorutil.ErrDataIntegrity, len(data))
	}
	values := make([]float64, len(data)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return Answers{
		Distances: values[:len(values)-1],
		Average:   values[len(values)-1],
	}, nil
}
