package rfsim

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Algorithm names.
const (
	AlgorithmSpline    = "spline"
	AlgorithmGPUSpline = "gpu_spline2"
)

// Factory builds one simulator instance.
type Factory func(opts ...Option) (Simulator, error)

// Registry maps algorithm names to their factories.
type Registry struct {
	factories map[string]Factory
}

var errDuplicateAlgorithm = errors.New("rfsim: duplicate algorithm")

// Register adds a factory under a new algorithm name.
func (r *Registry) Register(algorithm string, factory Factory) error {
	if algorithm == "" || factory == nil {
		return fmt.Errorf("rfsim: register %q: empty name or nil factory", algorithm)
	}
	if _, exists := r.factories[algorithm]; exists {
		return fmt.Errorf("%w: %s", errDuplicateAlgorithm, algorithm)
	}
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	r.factories[algorithm] = factory
	return nil
}

// Algorithms returns the registered names in sorted order.
func (r *Registry) Algorithms() []string {
	return slices.Sorted(maps.Keys(r.factories))
}

// New builds a simulator for the given algorithm.
func (r *Registry) New(algorithm string, opts ...Option) (Simulator, error) {
	factory, ok := r.factories[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownAlgorithm, algorithm, r.Algorithms())
	}
	return factory(opts...)
}

// DefaultRegistry returns a registry with the CPU spline engine and the
// GPU engine, which this build reports as unavailable.
func DefaultRegistry() *Registry {
	return &Registry{factories: map[string]Factory{
		AlgorithmSpline: func(opts ...Option) (Simulator, error) {
			return NewSplineSimulator(opts...), nil
		},
		AlgorithmGPUSpline: func(...Option) (Simulator, error) {
			return nil, fmt.Errorf("%w: %s requires a GPU build", ErrAlgorithmUnavailable, AlgorithmGPUSpline)
		},
	}}
}

var defaultRegistry = DefaultRegistry()

// New builds a simulator from the default registry.
func New(algorithm string, opts ...Option) (Simulator, error) {
	return defaultRegistry.New(algorithm, opts...)
}
