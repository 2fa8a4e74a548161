package compute

import "time"

// CPUBackendOption is a functional option applied to the CPU backend during construction via NewCPUBackend.
type CPUBackendOption func(*cpuBackend)

// WithWorkers sets the worker pool size. Values below 1 are ignored.
//
// Parameters:
//   - workers: maximum number of pool workers
//
// Returns:
//   - CPUBackendOption: a function that applies the worker count to the backend
func WithWorkers(workers int) CPUBackendOption {
	return func(b *cpuBackend) {
		if workers >= 1 {
			b.workers = workers
		}
	}
}

// WithQueueSize sets the worker pool task queue size. Values below 1 are ignored.
//
// Parameters:
//   - size: task queue capacity
//
// Returns:
//   - CPUBackendOption: a function that applies the queue size to the backend
func WithQueueSize(size int) CPUBackendOption {
	return func(b *cpuBackend) {
		if size >= 1 {
			b.queueSize = size
		}
	}
}

// WithIdleTimeout sets the worker idle timeout handed to the pool.
//
// Parameters:
//   - timeout: worker idle timeout
//
// Returns:
//   - CPUBackendOption: a function that applies the timeout to the backend
func WithIdleTimeout(timeout time.Duration) CPUBackendOption {
	return func(b *cpuBackend) {
		b.idleTimeout = timeout
	}
}

// WithCapabilities overrides the reported capabilities, e.g. to exercise the half-float fallback.
//
// Parameters:
//   - caps: the capabilities to report
//
// Returns:
//   - CPUBackendOption: a function that applies the capabilities to the backend
func WithCapabilities(caps Capabilities) CPUBackendOption {
	return func(b *cpuBackend) {
		b.caps = caps
	}
}
