package geostream

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func benchFeature(i int) *Feature {
	x := float64(i%360) - 180
	y := float64(i%170) - 85
	return NewFeature(orb.Polygon{
		{{x, y}, {x + 0.5, y}, {x + 0.5, y + 0.5}, {x, y + 0.5}, {x, y}},
	}, geojson.Properties{"index": i, "name": fmt.Sprintf("cell-%d", i)})
}

func benchStream(b *testing.B, version, n int) string {
	b.Helper()

	path := filepath.Join(b.TempDir(), "bench.gjz")
	f, err := os.Create(path)
	if err != nil {
		b.Fatal(err)
	}
	defer f.Close()

	w, err := NewWriter(f, nil, &WriterOptions{Version: version})
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if err := w.WriteFeature(benchFeature(i)); err != nil {
			b.Fatal(err)
		}
	}
	return path
}

func BenchmarkWriteFeature(b *testing.B) {
	for _, version := range []int{SchemaV3, SchemaV4} {
		b.Run(fmt.Sprintf("v%d", version), func(b *testing.B) {
			f, err := os.Create(filepath.Join(b.TempDir(), "bench.gjz"))
			if err != nil {
				b.Fatal(err)
			}
			defer f.Close()
			w, err := NewWriter(f, nil, &WriterOptions{Version: version})
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := w.WriteFeature(benchFeature(i)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRead(b *testing.B) {
	const records = 1000
	for _, version := range []int{SchemaV3, SchemaV4} {
		for _, reverse := range []bool{false, true} {
			name := fmt.Sprintf("v%d_forward", version)
			if reverse {
				name = fmt.Sprintf("v%d_reverse", version)
			}
			b.Run(name, func(b *testing.B) {
				path := benchStream(b, version, records)
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					f, err := os.Open(path)
					if err != nil {
						b.Fatal(err)
					}
					r, err := NewReader(f, &ReaderOptions{Reverse: reverse})
					if err != nil {
						b.Fatal(err)
					}
					count := 0
					for r.Next() {
						count++
					}
					if err := r.Err(); err != nil {
						b.Fatal(err)
					}
					if count != records {
						b.Fatalf("expected %d records, got %d", records, count)
					}
					f.Close()
				}
			})
		}
	}
}
