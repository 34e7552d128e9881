package trace

import "errors"

var (
	ErrInvalidMagic     = errors.New("invalid trace magic")
	ErrUnsupportedMajor = errors.New("unsupported trace major version")
	ErrCorruptFile      = errors.New("corrupt trace file")
)
