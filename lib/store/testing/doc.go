// Package testing provides standardised tests and benchmarks for secure
// store implementations that satisfy the store.IStore interface.
//
// The package contains:
//   - testing: A conformance suite covering round trips, replica repair,
//     tamper detection, namespace management and input validation
//   - benchmark: Performance tests that report latency percentiles for the
//     common store operations
//
// This package is particularly useful for:
//   - Store developers implementing the IStore interface
//   - Host applications that want to validate a store against the
//     directories and platform identity they will actually ship with
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() (store.IStore, [3]string, error) {
//		return newMyStore()
//	}
//
//	// Running the standard test suite
//	testing.RunStoreTests(t, "MyStore", factory)
//
//	// Running performance benchmarks
//	testing.RunStoreBenchmarks(b, "MyStore", factory)
package testing
