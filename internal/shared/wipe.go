// Package shared holds small helpers used by both the server and the
// operator tools.
package shared

// WipeByteArray zeroes b in place. Use it on password buffers once they
// are no longer needed. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	clear(b)
}
