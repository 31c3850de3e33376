package store

import "github.com/ardnew/synth/lang"

var (
	ErrOpen              = lang.NewError("open library store")
	ErrQuery             = lang.NewError("query library store")
	ErrInvalidDefinition = lang.NewError("invalid definition")
)
