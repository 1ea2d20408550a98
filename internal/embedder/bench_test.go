package embedder

import (
	"fmt"
	"testing"
)

// Cache keys include the model so that switching providers never serves
// vectors of the wrong width
func BenchmarkComputeHash_Models(b *testing.B) {
	page := "Employees accrue vacation days monthly and may carry five unused days into the next year."

	for _, model := range []string{DefaultLocalModel, DefaultMistralModel, DefaultOpenAIModel} {
		b.Run(model, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = ComputeHash(model, page)
			}
		})
	}
}

func BenchmarkToMatrix(b *testing.B) {
	for _, rows := range []int{16, 64, 256} {
		b.Run(fmt.Sprintf("rows=%d", rows), func(b *testing.B) {
			embs := make([]*Embedding, rows)
			for i := range embs {
				embs[i] = &Embedding{Vector: make([]float32, MistralDimension)}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := ToMatrix(embs); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
