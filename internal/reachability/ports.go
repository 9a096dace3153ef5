package reachability

import "sort"

// preferredPorts are tried before any other candidate, in this order. They
// cover the ports a container is overwhelmingly likely to serve HTTP on.
var preferredPorts = []int{80, 443, 8080, 8000, 3000}

// maxProbePorts caps how many candidates a single task will probe.
const maxProbePorts = 6

// RankPorts orders candidate ports for probing: preference-list ports first
// in preference order, then the remaining ports ascending. Duplicates are
// dropped and the result is capped to bound probe cost.
func RankPorts(ports []int) []int {
	present := make(map[int]bool, len(ports))
	for _, p := range ports {
		if p > 0 {
			present[p] = true
		}
	}

	ranked := make([]int, 0, len(present))
	for _, p := range preferredPorts {
		if present[p] {
			ranked = append(ranked, p)
			delete(present, p)
		}
	}

	rest := make([]int, 0, len(present))
	for p := range present {
		rest = append(rest, p)
	}
	sort.Ints(rest)
	ranked = append(ranked, rest...)

	if len(ranked) > maxProbePorts {
		ranked = ranked[:maxProbePorts]
	}
	return ranked
}
