// Package pow2 has the power-of-two rounding the chunker needs to align
// chunk boundaries to the page size. Adapted from grailbio-bio's
// circular.NextExp2, which rounds a circular-buffer size up to the next
// power of two strictly greater than its input; the chunker instead needs
// the smallest power of two that is greater than OR EQUAL to its input
// (Rust's usize::next_power_of_two), so CeilPow2 returns x unchanged when x
// is already a power of two.
package pow2

import "math/bits"

// CeilPow2 returns the smallest power of two that is >= x. x must be
// positive.
func CeilPow2(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x-1))
}
