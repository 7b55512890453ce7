package haversine

import (
	"fmt"
	"math/rand"
)

type Method string

const (
	MethodUniform Method = "uniform"
	MethodCluster Method = "cluster"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodUniform, MethodCluster:
		return Method(s), nil
	}
	return "", fmt.Errorf("unknown generation method %q", s)
}

// Generator produces random pairs. Pairs from the cluster method are drawn
// around a handful of random centers so the distances don't all average out
// to the same value.
type Generator struct {
	rng    *rand.Rand
	method Method
	count  int

	delta            float64
	maxPerCluster    int
	remainingCluster int
	clusterX         float64
	clusterY         float64
}

func NewGenerator(seed int64, count int, method Method) (*Generator, error) {
	if count <= 0 {
		return nil, fmt.Errorf("the number of pairs to generate must be a positive integer, got %d", count)
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	g := &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		method: method,
		count:  count,
	}
	g.delta = g.random(15, 30)
	g.maxPerCluster = count/64 + 1
	return g, nil
}

func (g *Generator) random(min, max float64) float64 {
	return min + (max-min)*g.rng.Float64()
}

func (g *Generator) clustered(pivot, min, max float64) float64 {
	lo := pivot - g.delta
	if lo < min {
		lo = min
	}
	hi := pivot + g.delta
	if hi > max {
		hi = max
	}
	return g.random(lo, hi)
}

// Next returns the next pair.
func (g *Generator) Next() Pair {
	if g.method == MethodUniform {
		return Pair{
			X0: g.random(-180, 180),
			Y0: g.random(-90, 90),
			X1: g.random(-180, 180),
			Y1: g.random(-90, 90),
		}
	}
	if g.remainingCluster == 0 {
		g.clusterX = g.random(-180, 180)
		g.clusterY = g.random(-90, 90)
		g.remainingCluster = g.maxPerCluster
	}
	g.remainingCluster--
	return Pair{
		X0: g.clustered(g.clusterX, -180, 180),
		Y0: g.clustered(g.clusterY, -90, 90),
		X1: g.clustered(g.clusterX, -180, 180),
		Y1: g.clustered(g.clusterY, -90, 90),
	}
}

// Generate writes count pairs to pw and, when aw is not nil, their
// distances to aw. It returns the average distance.
func (g *Generator) Generate(pw *PairWriter, aw *AnswerWriter) (float64, error) {
	sumFactor := 1.0 / float64(g.count)
	var avg float64
	for i := 0; i < g.count; i++ {
		p := g.Next()
		if err := pw.Write(p); err != nil {
			return 0, err
		}
		d := p.Distance()
		if aw != nil {
			if err := aw.Write(d); err != nil {
				return 0, err
			}
		}
		avg += d * sumFactor
	}
	if err := pw.Close(); err != nil {
		return 0, err
	}
	if aw != nil {
		if err := aw.Close(avg); err != nil {
			return 0, err
		}
	}
	return avg, nil
}
