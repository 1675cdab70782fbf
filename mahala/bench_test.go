package mahala

import (
	"math/rand"
	"testing"
)

func randomVectors(n, dim int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, dim)
		for j := range rows[i] {
			rows[i][j] = rng.NormFloat64()
		}
	}
	return rows
}

func BenchmarkNewModel21(b *testing.B) {
	rows := randomVectors(50, 21, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NewModel(rows, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDistance21(b *testing.B) {
	rows := randomVectors(50, 21, 1)
	m, err := NewModel(rows, 0)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Distance(rows[0], rows[1]); err != nil {
			b.Fatal(err)
		}
	}
}
