//go:build baremetal

package kernel

// The freestanding runtime has no symbolizer; the panic screen shows the
// value only.
func captureStack() []byte { return nil }
