package compute

import (
	"github.com/Carmen-Shannon/oxy-birds/common"
)

// Variable is one simulated quantity: a program, its dependencies and two targets.
type Variable struct {
	name         string
	program      Program
	initial      *common.FloatTextureData
	dependencies []*Variable
	wrap         WrapMode
	targets      [2]Target
}

// Name returns the variable's unique name.
func (v *Variable) Name() string {
	return v.name
}

// Program returns the program run for this variable.
func (v *Variable) Program() *Program {
	return &v.program
}

// Dependencies returns the variables read by the program, in binding order.
func (v *Variable) Dependencies() []*Variable {
	return v.dependencies
}

// Wrap returns the wrap mode used when the program reads this variable's inputs.
func (v *Variable) Wrap() WrapMode {
	return v.wrap
}

// SetWrap changes the wrap mode. It only has an effect before Init.
func (v *Variable) SetWrap(mode WrapMode) {
	v.wrap = mode
}

// Initial returns the seed texture, or nil.
func (v *Variable) Initial() *common.FloatTextureData {
	return v.initial
}
