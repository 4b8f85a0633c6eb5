package bound

import "github.com/cespare/xxhash/v2"

// checksum32 computes the 32-bit running integrity checksum section 4.1
// requires ("a 32-bit running checksum is maintained when verification >=
// Full"). The original Rust implementation hand-rolls an FNV-style
// accumulator; this core instead uses xxhash, the checksum algorithm the
// pack reaches for whenever content hashing is needed (moby-moby pulls it
// in transitively for exactly this purpose), truncated to 32 bits.
func checksum32(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}
