package ogg

// Ogg CRC-32: polynomial 0x04C11DB7, no reflection, zero initial value and
// no final XOR. This is not the IEEE CRC-32 from hash/crc32.

var crcTable = func() (t [256]uint32) {
	const poly = uint32(0x04C11DB7)
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// Checksum computes the Ogg CRC-32 of b.
func Checksum(b []byte) uint32 {
	return UpdateChecksum(0, b)
}

// UpdateChecksum continues a running Ogg CRC-32 with b.
func UpdateChecksum(crc uint32, b []byte) uint32 {
	for _, c := range b {
		crc = (crc << 8) ^ crcTable[byte(crc>>24)^c]
	}
	return crc
}
