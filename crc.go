package modbus

// CRC16 computes the Modbus CRC-16 checksum (reflected polynomial 0xA001)
// over data. The result is byte-swapped so that writing it big-endian puts
// the low CRC byte first, which is the RTU wire order.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if (crc & 0x0001) != 0 {
				crc >>= 1
				crc ^= 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return ((crc & 0xFF) << 8) | ((crc >> 8) & 0xFF)
}
