package reachability

import (
	"reflect"
	"testing"
)

func TestRankPorts_PreferenceOrder(t *testing.T) {
	got := RankPorts([]int{8000, 22, 443, 3000})
	want := []int{443, 8000, 3000, 22}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankPorts() = %v, want %v", got, want)
	}
}

func TestRankPorts_AllPreferred(t *testing.T) {
	got := RankPorts([]int{3000, 80, 8000, 443, 8080})
	want := []int{80, 443, 8080, 8000, 3000}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankPorts() = %v, want %v", got, want)
	}
}

func TestRankPorts_CapsCandidates(t *testing.T) {
	got := RankPorts([]int{9001, 9002, 9003, 9004, 9005, 9006, 9007, 80})
	if len(got) != maxProbePorts {
		t.Fatalf("len = %d, want %d", len(got), maxProbePorts)
	}
	if got[0] != 80 {
		t.Errorf("got[0] = %d, want the preferred port first", got[0])
	}
	want := []int{80, 9001, 9002, 9003, 9004, 9005}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankPorts() = %v, want %v", got, want)
	}
}

func TestRankPorts_DropsDuplicatesAndZeros(t *testing.T) {
	got := RankPorts([]int{8080, 8080, 0, -1, 22, 22})
	want := []int{8080, 22}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankPorts() = %v, want %v", got, want)
	}
}

func TestRankPorts_Empty(t *testing.T) {
	if got := RankPorts(nil); len(got) != 0 {
		t.Errorf("RankPorts(nil) = %v, want empty", got)
	}
}
