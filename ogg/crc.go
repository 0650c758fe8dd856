package ogg

// Ogg's CRC-32 uses polynomial 0x04C11DB7 with no reflection and no
// final xor, so hash/crc32 does not apply.

var crcTable [256]uint32

func init() {
	const poly = uint32(0x04C11DB7)
	for i := range crcTable {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

func checksum(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}
