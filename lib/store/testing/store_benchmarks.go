package testing

import (
	"fmt"
	"testing"
	"time"

	"github.com/jklemens/sKV/lib/store"
	gometrics "github.com/rcrowley/go-metrics"
)

// RunStoreBenchmarks runs all benchmarks for a secure store implementation.
//
// The store serializes every operation behind its mutex, so the benchmarks
// run sequential loops; parallel drivers would only measure lock contention.
// Each subtest reports latency percentiles alongside the usual ns/op.
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {

	b.Run("Store", func(b *testing.B) {
		benchmarkStore(b, factory)
	})

	b.Run("StoreExisting", func(b *testing.B) {
		benchmarkStoreExisting(b, factory)
	})

	b.Run("StoreLargeValue", func(b *testing.B) {
		benchmarkStoreLargeValue(b, factory)
	})

	b.Run("Retrieve", func(b *testing.B) {
		benchmarkRetrieve(b, factory)
	})

	b.Run("Retrieve(miss)", func(b *testing.B) {
		benchmarkRetrieveMiss(b, factory)
	})

	b.Run("Contains", func(b *testing.B) {
		benchmarkContains(b, factory)
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory)
	})

	b.Run("ListKeys", func(b *testing.B) {
		benchmarkListKeys(b, factory)
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory)
	})
}

// --------------------------------------------------------------------------
// Latency recording
// --------------------------------------------------------------------------

// newLatencyHistogram returns a histogram with an exponentially decaying
// sample, suitable for per-operation latency in nanoseconds.
func newLatencyHistogram() gometrics.Histogram {
	return gometrics.NewHistogram(gometrics.NewExpDecaySample(1028, 0.015))
}

// reportLatency publishes the histogram percentiles as custom benchmark
// metrics so that `go test -bench` prints them next to ns/op.
func reportLatency(b *testing.B, hist gometrics.Histogram) {
	ps := hist.Percentiles([]float64{0.5, 0.95, 0.99})
	b.ReportMetric(ps[0], "p50-ns")
	b.ReportMetric(ps[1], "p95-ns")
	b.ReportMetric(ps[2], "p99-ns")
}

// timed runs op and records its duration in the histogram.
func timed(hist gometrics.Histogram, op func()) {
	start := time.Now()
	op()
	hist.Update(time.Since(start).Nanoseconds())
}

// mustFactory builds a store or aborts the benchmark.
func mustFactory(b *testing.B, factory StoreFactory) store.IStore {
	s, _, err := factory()
	if err != nil {
		b.Fatalf("factory failed: %v", err)
	}
	return s
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Store with fresh keys
func benchmarkStore(b *testing.B, factory StoreFactory) {
	s := mustFactory(b, factory)
	hist := newLatencyHistogram()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("bench-key-%d", i)
		value := store.String(fmt.Sprintf("bench-value-%d", i))
		timed(hist, func() {
			s.Store(key, value)
		})
	}
	reportLatency(b, hist)
}

// Benchmark for Store overwriting existing keys
func benchmarkStoreExisting(b *testing.B, factory StoreFactory) {
	s := mustFactory(b, factory)
	hist := newLatencyHistogram()

	// Prepare data
	numKeys := 1000
	if b.N < numKeys {
		numKeys = b.N
	}
	if numKeys == 0 {
		numKeys = 1
	}
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("bench-key-%d", i)
		s.Store(key, store.String(fmt.Sprintf("bench-value-%d", i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("bench-key-%d", i%numKeys)
		value := store.String(fmt.Sprintf("bench-value-%d", i))
		timed(hist, func() {
			s.Store(key, value)
		})
	}
	reportLatency(b, hist)
}

// Benchmark for Store with large string values
func benchmarkStoreLargeValue(b *testing.B, factory StoreFactory) {
	s := mustFactory(b, factory)
	hist := newLatencyHistogram()

	large := make([]byte, 64*1024) // 64KB
	for i := range large {
		large[i] = byte('a' + i%26)
	}
	value := store.String(string(large))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("bench-large-%d", i)
		timed(hist, func() {
			s.Store(key, value)
		})
	}
	reportLatency(b, hist)
}

// Benchmark for Retrieve on present keys
func benchmarkRetrieve(b *testing.B, factory StoreFactory) {
	s := mustFactory(b, factory)
	hist := newLatencyHistogram()

	// Prepare data
	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("bench-key-%d", i)
		s.Store(key, store.String(fmt.Sprintf("bench-value-%d", i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("bench-key-%d", i%numKeys)
		timed(hist, func() {
			s.Retrieve(key, store.TagString)
		})
	}
	reportLatency(b, hist)
}

// Benchmark for Retrieve on absent keys
func benchmarkRetrieveMiss(b *testing.B, factory StoreFactory) {
	s := mustFactory(b, factory)
	hist := newLatencyHistogram()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		timed(hist, func() {
			s.Retrieve("bench-missing-key", store.TagString)
		})
	}
	reportLatency(b, hist)
}

// Benchmark for Contains
func benchmarkContains(b *testing.B, factory StoreFactory) {
	s := mustFactory(b, factory)
	hist := newLatencyHistogram()

	// Prepare data, half of the probes will miss
	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("bench-key-%d", i)
		s.Store(key, store.String("x"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("bench-key-%d", i%(2*numKeys))
		timed(hist, func() {
			s.Contains(key)
		})
	}
	reportLatency(b, hist)
}

// Benchmark for Delete
func benchmarkDelete(b *testing.B, factory StoreFactory) {
	s := mustFactory(b, factory)
	hist := newLatencyHistogram()

	// Prepare data
	keys := make([]string, b.N)
	for i := 0; i < b.N; i++ {
		keys[i] = fmt.Sprintf("bench-key-%d", i)
		s.Store(keys[i], store.String("x"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		timed(hist, func() {
			s.Delete(keys[i])
		})
	}
	reportLatency(b, hist)
}

// Benchmark for key enumeration over a populated namespace tree
func benchmarkListKeys(b *testing.B, factory StoreFactory) {
	s := mustFactory(b, factory)
	hist := newLatencyHistogram()

	// Prepare a small module tree with records in each module
	s.CreateModule("", "app")
	s.CreateModule("app", "net")
	for i := 0; i < 100; i++ {
		s.Store(fmt.Sprintf("root-key-%d", i), store.String("x"))
		s.StoreToModule("app", fmt.Sprintf("app-key-%d", i), store.String("x"))
		s.StoreToModule("app/net", fmt.Sprintf("net-key-%d", i), store.String("x"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		timed(hist, func() {
			s.GetAllKeys()
		})
	}
	reportLatency(b, hist)
}

// Benchmark for mixed usage patterns
func benchmarkMixedUsage(b *testing.B, factory StoreFactory) {
	s := mustFactory(b, factory)
	hist := newLatencyHistogram()

	// Prepare initial data
	numKeys := 1000
	keys := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = fmt.Sprintf("bench-key-%d", i)
		s.Store(keys[i], store.String(fmt.Sprintf("bench-value-%d", i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := keys[i%numKeys]

		// For every 10th operation, use a completely new key
		if i%10 == 0 {
			key = fmt.Sprintf("new-key-%d", i)
		}

		switch i % 4 {
		case 0: // Retrieve
			timed(hist, func() {
				s.Retrieve(key, store.TagString)
			})
		case 1: // Store
			value := store.String(fmt.Sprintf("mixed-value-%d", i))
			timed(hist, func() {
				s.Store(key, value)
			})
		case 2: // Contains
			timed(hist, func() {
				s.Contains(key)
			})
		case 3: // Delete
			timed(hist, func() {
				s.Delete(key)
			})
		}
	}
	reportLatency(b, hist)
}
