//go:build !wasip1

package log

import (
	"fmt"
	"os"
)

// sendToHost writes the encoded message to stderr for non-WASM builds
// (host tests, native rendering).
func sendToHost(data []byte) {
	fmt.Fprintf(os.Stderr, "[GUEST] %s\n", data)
}
