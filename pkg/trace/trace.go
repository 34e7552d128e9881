// Package trace implements the BST run-trace container format.
//
// BST is a single-file, memory-mappable container for training-run metrics.
// A trace stores one run-info document and any number of named float64
// series. It records measurements only and never implies how they were
// produced.
package trace

// BST global constants must never change.
const (
	// MagicTrace is the file magic for all BST containers.
	// It is encoded as "BST\0".
	MagicTrace = "BST\x00"

	// Current Major Version: Any change indicates a breaking format change.
	CurrentMajor uint16 = 1

	// Current Minor Version: Versions may add new optional sections or fields.
	CurrentMinor uint16 = 0

	// FlagRunComplete marks a trace whose run finished and was finalised
	// normally. Traces recovered from an interrupted run leave it unset.
	FlagRunComplete uint64 = 1 << 0
)

type SectionType uint32

const (
	SectionRunInfo    SectionType = 0x0001
	SectionSeriesData SectionType = 0x0002
)

type TraceHeader struct {
	Magic            [4]byte
	Major            uint16
	Minor            uint16
	HeaderSize       uint32
	SectionCount     uint32
	SectionDirOffset uint64
	FileSize         uint64
	Flags            uint64
}

// Valid reports whether the header carries the trace magic.
func (h *TraceHeader) Valid() bool {
	return string(h.Magic[:]) == MagicTrace
}

// Compatible reports whether this build can read the file's major version.
func (h *TraceHeader) Compatible() bool {
	return h.Major == CurrentMajor
}

type TraceSection struct {
	Type    uint32
	Version uint32
	Offset  uint64
	Size    uint64
}
