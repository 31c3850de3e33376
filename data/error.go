package data

import "github.com/ardnew/synth/lang"

var (
	ErrUnknownFormat = lang.NewError("unknown data format")
	ErrReadFile      = lang.NewError("failed to read data file")
	ErrDecode        = lang.NewError("failed to decode data")
	ErrNotMapping    = lang.NewError("data document is not a mapping")
	ErrAssign        = lang.NewError("invalid assignment")
)
