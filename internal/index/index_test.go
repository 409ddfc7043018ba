package index

import (
	"errors"
	"math"
	"testing"
)

func TestAdd_LengthMismatch(t *testing.T) {
	ix := New()
	err := ix.Add([]string{"a", "b"}, [][]float64{{1, 0}})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestAdd_DimensionFixedByFirstAdd(t *testing.T) {
	ix := New()
	if err := ix.Add([]string{"a"}, [][]float64{{1, 0, 0}}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := ix.Add([]string{"b"}, [][]float64{{1, 0}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if ix.Len() != 1 {
		t.Errorf("expected 1 chunk after rejected add, got %d", ix.Len())
	}
}

func TestSearch_OrdersByAscendingDistance(t *testing.T) {
	ix := New()
	err := ix.Add(
		[]string{"far", "near", "mid"},
		[][]float64{{10, 0}, {1, 0}, {5, 0}},
	)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	hits, err := ix.Search([]float64{0, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Text != "near" || hits[1].Text != "mid" || hits[2].Text != "far" {
		t.Errorf("unexpected order: %q %q %q", hits[0].Text, hits[1].Text, hits[2].Text)
	}
	if math.Abs(hits[0].Distance-1) > 1e-9 {
		t.Errorf("expected distance 1 for nearest, got %f", hits[0].Distance)
	}
}

func TestSearch_CapsAtK(t *testing.T) {
	ix := New()
	if err := ix.Add([]string{"a", "b", "c", "d"}, [][]float64{{1}, {2}, {3}, {4}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	hits, err := ix.Search([]float64{0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}
}

func TestSearch_WrongQueryDimension(t *testing.T) {
	ix := New()
	if err := ix.Add([]string{"a"}, [][]float64{{1, 2}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := ix.Search([]float64{1}, 3); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
