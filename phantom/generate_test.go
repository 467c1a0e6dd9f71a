package phantom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func smallFlowConfig() FlowConfig {
	cfg := DefaultFlowConfig()
	cfg.NumScatterers = 50
	cfg.NumControlPoints = 10
	return cfg
}

func TestGenerateFlowShape(t *testing.T) {
	cfg := smallFlowConfig()
	s, err := GenerateFlow(cfg)
	if err != nil {
		t.Fatalf("GenerateFlow() error = %v", err)
	}
	if s.NumScatterers() != cfg.NumScatterers || s.NumControlPoints() != cfg.NumControlPoints {
		t.Fatalf("shape = %d x %d", s.NumScatterers(), s.NumControlPoints())
	}
	lo, hi := s.Domain()
	if lo != 0 || hi != cfg.Duration {
		t.Fatalf("domain = [%v, %v], want [0, %v]", lo, hi, cfg.Duration)
	}
}

func TestGenerateFlowDeterministic(t *testing.T) {
	a, err := GenerateFlow(smallFlowConfig())
	if err != nil {
		t.Fatalf("GenerateFlow() error = %v", err)
	}
	b, err := GenerateFlow(smallFlowConfig())
	if err != nil {
		t.Fatalf("GenerateFlow() error = %v", err)
	}
	for i := range a.Nodes {
		for j := range a.Nodes[i] {
			if a.Nodes[i][j] != b.Nodes[i][j] {
				t.Fatalf("node [%d][%d] differs between runs", i, j)
			}
		}
	}
}

func TestGenerateFlowStaysInVessel(t *testing.T) {
	cfg := smallFlowConfig()
	s, err := GenerateFlow(cfg)
	if err != nil {
		t.Fatalf("GenerateFlow() error = %v", err)
	}

	axis := r3.Vec{X: math.Sin(cfg.BeamAngle), Z: math.Cos(cfg.BeamAngle)}
	for i := range s.Nodes {
		for _, tt := range []float64{0, 0.3, 0.9} {
			pos, _, err := s.Evaluate(i, tt)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			rel := r3.Sub(pos, cfg.Center)
			radial := r3.Sub(rel, r3.Scale(r3.Dot(rel, axis), axis))
			if r3.Norm(radial) > cfg.Radius*(1+1e-6) {
				t.Fatalf("scatterer %d at t=%v is %v m off axis", i, tt, r3.Norm(radial))
			}
		}
	}
}

func TestGenerateFlowMovesDownstream(t *testing.T) {
	cfg := smallFlowConfig()
	cfg.Pulsatility = 0
	s, err := GenerateFlow(cfg)
	if err != nil {
		t.Fatalf("GenerateFlow() error = %v", err)
	}

	axis := r3.Vec{X: math.Sin(cfg.BeamAngle), Z: math.Cos(cfg.BeamAngle)}
	for i := range s.Nodes {
		p0, _, _ := s.Evaluate(i, 0)
		p1, _, _ := s.Evaluate(i, cfg.Duration)
		travel := r3.Dot(r3.Sub(p1, p0), axis)
		if travel < -1e-12 || travel > cfg.PeakVelocity*cfg.Duration+1e-9 {
			t.Fatalf("scatterer %d travelled %v m", i, travel)
		}
	}
}

func TestFlowConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *FlowConfig)
	}{
		{"no scatterers", func(c *FlowConfig) { c.NumScatterers = 0 }},
		{"zero radius", func(c *FlowConfig) { c.Radius = 0 }},
		{"negative velocity", func(c *FlowConfig) { c.PeakVelocity = -1 }},
		{"pulsatility", func(c *FlowConfig) { c.Pulsatility = 1 }},
		{"duration", func(c *FlowConfig) { c.Duration = 0 }},
		{"heart rate", func(c *FlowConfig) { c.HeartRate = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFlowConfig()
			tt.mutate(&cfg)
			if _, err := GenerateFlow(cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
