package cache

import (
	"testing"

	"mergesolver/internal/rdag"
)

func buildTestGraph() *rdag.Graph {
	g := rdag.NewGraph()
	g.AddNode(&rdag.Node{ID: 1, M: 10, C: 10})
	g.AddNode(&rdag.Node{ID: 2, M: 20, C: 5})
	g.AddNode(&rdag.Node{ID: 4, M: 5, C: 5})
	g.AddEdge(&rdag.Edge{From: 1, To: 2, Weight: 10, Type: rdag.EdgeSync})
	g.AddEdge(&rdag.Edge{From: 2, To: 4, Weight: 5, Type: rdag.EdgeAsync})
	return g
}

func TestGraphHash(t *testing.T) {
	t.Run("nil graph", func(t *testing.T) {
		hash := GraphHash(nil)
		if hash != "" {
			t.Errorf("GraphHash(nil) = %v, want empty string", hash)
		}
	})

	t.Run("same graph produces same hash", func(t *testing.T) {
		g := buildTestGraph()

		hash1 := GraphHash(g)
		hash2 := GraphHash(g)

		if hash1 != hash2 {
			t.Errorf("same graph should produce same hash: %v != %v", hash1, hash2)
		}
	})

	t.Run("different graphs produce different hashes", func(t *testing.T) {
		g1 := rdag.NewGraph()
		g1.AddNode(&rdag.Node{ID: 1, M: 1, C: 1})
		g1.AddNode(&rdag.Node{ID: 2, M: 1, C: 1})
		g1.AddEdge(&rdag.Edge{From: 1, To: 2, Weight: 10, Type: rdag.EdgeSync})

		g2 := rdag.NewGraph()
		g2.AddNode(&rdag.Node{ID: 1, M: 1, C: 1})
		g2.AddNode(&rdag.Node{ID: 2, M: 1, C: 1})
		g2.AddEdge(&rdag.Edge{From: 1, To: 2, Weight: 20, Type: rdag.EdgeSync}) // different weight

		hash1 := GraphHash(g1)
		hash2 := GraphHash(g2)

		if hash1 == hash2 {
			t.Error("different graphs should produce different hashes")
		}
	})

	t.Run("node insertion order does not affect hash", func(t *testing.T) {
		g1 := rdag.NewGraph()
		g1.AddNode(&rdag.Node{ID: 1, M: 1, C: 1})
		g1.AddNode(&rdag.Node{ID: 2, M: 2, C: 2})
		g1.AddNode(&rdag.Node{ID: 3, M: 3, C: 3})
		g1.AddEdge(&rdag.Edge{From: 1, To: 2, Weight: 10, Type: rdag.EdgeSync})

		g2 := rdag.NewGraph()
		g2.AddNode(&rdag.Node{ID: 3, M: 3, C: 3})
		g2.AddNode(&rdag.Node{ID: 1, M: 1, C: 1})
		g2.AddNode(&rdag.Node{ID: 2, M: 2, C: 2})
		g2.AddEdge(&rdag.Edge{From: 1, To: 2, Weight: 10, Type: rdag.EdgeSync})

		hash1 := GraphHash(g1)
		hash2 := GraphHash(g2)

		if hash1 != hash2 {
			t.Error("node insertion order should not affect hash")
		}
	})
}

func TestRootSetHash(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		r1 := map[int64]bool{1: true, 2: true, 3: true}
		r2 := map[int64]bool{3: true, 1: true, 2: true}

		if RootSetHash(r1) != RootSetHash(r2) {
			t.Error("root set hash must not depend on map iteration order")
		}
	})

	t.Run("different sets differ", func(t *testing.T) {
		r1 := map[int64]bool{1: true, 2: true}
		r2 := map[int64]bool{1: true, 3: true}

		if RootSetHash(r1) == RootSetHash(r2) {
			t.Error("different root sets should hash differently")
		}
	})
}

func TestBuildSolveKey(t *testing.T) {
	key := BuildSolveKey("abc123", "def456")
	expected := "solve:abc123:def456"
	if key != expected {
		t.Errorf("BuildSolveKey() = %v, want %v", key, expected)
	}
}

func TestBuildSolveKeyWithOptions(t *testing.T) {
	tests := []struct {
		name        string
		graphHash   string
		rootHash    string
		optionsHash string
		expected    string
	}{
		{
			name:      "without options",
			graphHash: "abc123",
			rootHash:  "def456",
			expected:  "solve:abc123:def456",
		},
		{
			name:        "with options",
			graphHash:   "abc123",
			rootHash:    "def456",
			optionsHash: "opt789",
			expected:    "solve:abc123:def456:opt789",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := BuildSolveKeyWithOptions(tt.graphHash, tt.rootHash, tt.optionsHash)
			if key != tt.expected {
				t.Errorf("BuildSolveKeyWithOptions() = %v, want %v", key, tt.expected)
			}
		})
	}
}

func TestQuickHash(t *testing.T) {
	data := []byte("test data")
	hash := QuickHash(data)

	if len(hash) != 64 { // SHA256 hex = 64 chars
		t.Errorf("QuickHash length = %d, want 64", len(hash))
	}

	hash2 := QuickHash(data)
	if hash != hash2 {
		t.Error("same data should produce same hash")
	}
}

func TestShortHash(t *testing.T) {
	data := []byte("test data")
	hash := ShortHash(data)

	if len(hash) != 16 {
		t.Errorf("ShortHash length = %d, want 16", len(hash))
	}
}
