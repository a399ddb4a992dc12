//go:build nocgo
// +build nocgo

package audio

import (
	"errors"
	"io"
)

// OtoOutput stub for builds without CGO.
type OtoOutput struct{}

// NewOtoOutput always fails in nocgo builds.
func NewOtoOutput(Format) (*OtoOutput, error) {
	return nil, errors.New("audio not available in nocgo build")
}

func (o *OtoOutput) NewPlayer(io.Reader) (Player, error) {
	return nil, errors.New("audio not available in nocgo build")
}

func (o *OtoOutput) Format() Format { return DefaultFormat() }

func (o *OtoOutput) Close() error { return nil }
