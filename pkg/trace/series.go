package trace

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SeriesData payload format (v1), little-endian.
//
// The payload is a sequence of self-describing blocks, one per series:
//
//	u32     name_len
//	[]byte  name (name_len bytes, no NUL terminator)
//	u64     count
//	f64     values[count]
//
// Values are raw IEEE 754 bits, so NaN and Inf measurements survive a round
// trip unchanged. Blocks carry no padding; readers walk them sequentially.

// A Series is one named sequence of measurements, ordered by step.
type Series struct {
	Name   string
	Values []float64
}

const maxSeriesNameLen = 1 << 16

// EncodeSeriesData serialises series into a SeriesData section payload.
// Series names must be non-empty and unique within a trace.
func EncodeSeriesData(series []Series) ([]byte, error) {
	seen := make(map[string]struct{}, len(series))
	var out []byte
	for i := range series {
		s := &series[i]
		if err := checkSeriesName(s.Name); err != nil {
			return nil, err
		}
		if _, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("trace: duplicate series %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		out = appendSeriesBlock(out, s)
	}
	return out, nil
}

// WriteSeries streams one series block into an open SeriesData section.
// Callers are responsible for keeping streamed names unique; DecodeSeriesData
// rejects duplicates on read.
func WriteSeries(sw *SectionWriter, s Series) error {
	if err := checkSeriesName(s.Name); err != nil {
		return err
	}
	_, err := sw.Write(appendSeriesBlock(nil, &s))
	return err
}

// DecodeSeriesData parses a SeriesData section payload.
// The result copies out of data, so it stays valid after File.Close().
func DecodeSeriesData(data []byte) ([]Series, error) {
	var out []Series
	seen := make(map[string]struct{})
	off := 0
	for idx := 0; off < len(data); idx++ {
		if len(data)-off < 4 {
			return nil, fmt.Errorf("%w: series %d: truncated name length", ErrCorruptFile, idx)
		}
		nameLen := int(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
		if nameLen == 0 || nameLen > maxSeriesNameLen {
			return nil, fmt.Errorf("%w: series %d: name length %d out of range", ErrCorruptFile, idx, nameLen)
		}
		if len(data)-off < nameLen {
			return nil, fmt.Errorf("%w: series %d: truncated name", ErrCorruptFile, idx)
		}
		name := string(data[off : off+nameLen])
		off += nameLen

		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: duplicate series %q", ErrCorruptFile, name)
		}
		seen[name] = struct{}{}

		if len(data)-off < 8 {
			return nil, fmt.Errorf("%w: series %q: truncated value count", ErrCorruptFile, name)
		}
		count := binary.LittleEndian.Uint64(data[off : off+8])
		off += 8
		if count > uint64(len(data)-off)/8 {
			return nil, fmt.Errorf("%w: series %q: value count %d out of range", ErrCorruptFile, name, count)
		}

		values := make([]float64, count)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
			off += 8
		}
		out = append(out, Series{Name: name, Values: values})
	}
	return out, nil
}

func checkSeriesName(name string) error {
	if name == "" {
		return fmt.Errorf("trace: empty series name")
	}
	if len(name) > maxSeriesNameLen {
		return fmt.Errorf("trace: series name too long (%d bytes)", len(name))
	}
	return nil
}

func appendSeriesBlock(dst []byte, s *Series) []byte {
	var scratch [8]byte
	binary.LittleEndian.PutUint32(scratch[:4], uint32(len(s.Name)))
	dst = append(dst, scratch[:4]...)
	dst = append(dst, s.Name...)
	binary.LittleEndian.PutUint64(scratch[:], uint64(len(s.Values)))
	dst = append(dst, scratch[:]...)
	for _, v := range s.Values {
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v))
		dst = append(dst, scratch[:]...)
	}
	return dst
}
