// Package config loads the YAML-driven tunables the cost model, solver
// selection, and CLI driver consult, mirroring the teacher's own use of
// gopkg.in/yaml.v3 for configuration and data files (internal/evaluator's
// builtins_yaml.go).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights holds every tunable constant the cost model and solver-backend
// selection need. Absence of a config file is not an error: Default()
// matches the literal constants the cost model is grounded on exactly.
type Weights struct {
	// ExtremeCost dominates realistic symbolic cardinalities; must stay
	// >= 1000.
	ExtremeCost int64 `yaml:"extreme_cost"`

	// Storage-size constants per leaf type.
	BoolStorageBytes   int64 `yaml:"bool_storage_bytes"`
	IntStorageBytes    int64 `yaml:"int_storage_bytes"`
	NativeStorageBytes int64 `yaml:"native_storage_bytes"`
	HandleStorageBytes int64 `yaml:"handle_storage_bytes"`
	EnumStorageBytes   int64 `yaml:"enum_storage_bytes"`
	StringStorageBytes int64 `yaml:"string_storage_bytes"`
	// CollectionHeaderBytes is the fixed overhead charged for a Bag/Set/
	// List/Map value before summing its elements.
	CollectionHeaderBytes int64 `yaml:"collection_header_bytes"`

	// SolverBackend selects which solver.Solver the CLI driver wires in:
	// "local" (always available) or "remote" (dials RemoteSolverAddr).
	SolverBackend string `yaml:"solver_backend"`
	// RemoteSolverAddr is the gRPC target consulted only when
	// SolverBackend is "remote".
	RemoteSolverAddr string `yaml:"remote_solver_addr"`

	// MaxMinorIterationSize is loaded and defaulted but not read by the
	// learner or the CEGIS driver: it does not cap the size index, and the
	// search stops only on the learner's progress-exhaustion signal.
	MaxMinorIterationSize int `yaml:"max_minor_iteration_size"`
}

// Default returns the weights the cost model's Python original hard-coded:
// ONE/FOUR/TWO/TWENTY storage-size literals and EXTREME_COST = 1000.
func Default() Weights {
	return Weights{
		ExtremeCost:            1000,
		BoolStorageBytes:       1,
		IntStorageBytes:        4,
		NativeStorageBytes:     4,
		HandleStorageBytes:     4,
		EnumStorageBytes:       2,
		StringStorageBytes:     20,
		CollectionHeaderBytes:  4,
		SolverBackend:          "local",
		MaxMinorIterationSize:  64,
	}
}

// Load reads weights from a YAML file at path, starting from Default() so
// a partial file only overrides the fields it mentions. A missing file is
// not an error — Load returns Default() unchanged.
func Load(path string) (Weights, error) {
	w := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return w, nil
	}
	if err != nil {
		return Weights{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if w.ExtremeCost < 1000 {
		return Weights{}, fmt.Errorf("config: extreme_cost must be >= 1000, got %d", w.ExtremeCost)
	}
	return w, nil
}
