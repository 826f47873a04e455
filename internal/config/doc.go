// Package config defines the format-agnostic pipeline model. The HCL layer
// translates parsed files into these types; everything downstream (matrix
// expansion, stages, executor) consumes only this package.
package config
