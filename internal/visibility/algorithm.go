package visibility

import (
	"fmt"
	"strings"
)

// Algorithm selects which FEdges of a ViewEdge are sampled.
type Algorithm int

const (
	// Exhaustive samples every FEdge until one QI value holds a strict
	// majority.
	Exhaustive Algorithm = iota
	// Fast samples every other FEdge and stops once a QI value was seen
	// on more than a quarter of the FEdges.
	Fast
	// VeryFast samples the first FEdge only.
	VeryFast
)

var algorithmNames = map[Algorithm]string{
	Exhaustive: "exhaustive",
	Fast:       "fast",
	VeryFast:   "very_fast",
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm parses "exhaustive", "fast" or "very_fast".
func ParseAlgorithm(s string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for a, name := range algorithmNames {
		if name == key {
			return a, nil
		}
	}
	return Exhaustive, fmt.Errorf("unknown visibility algorithm %q", s)
}

// samples returns the indices of the FEdges to sample among n and the
// count a QI value must exceed to stop early.
func (a Algorithm) samples(n int) (indices []int, threshold int) {
	switch a {
	case VeryFast:
		return []int{0}, 0
	case Fast:
		for i := 0; i < n; i += 2 {
			indices = append(indices, i)
		}
		return indices, n / 4
	default:
		for i := 0; i < n; i++ {
			indices = append(indices, i)
		}
		return indices, n / 2
	}
}
