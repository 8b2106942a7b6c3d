package ids

import (
	"crypto/rand"
	"encoding/hex"
)

// New generates a random identifier in canonical UUIDv4 form.
func New() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("ids: " + err.Error())
	}
	buf[6] = (buf[6] & 0x0f) | 0x40
	buf[8] = (buf[8] & 0x3f) | 0x80
	dst := make([]byte, 36)
	hex.Encode(dst[:8], buf[:4])
	dst[8] = '-'
	hex.Encode(dst[9:13], buf[4:6])
	dst[13] = '-'
	hex.Encode(dst[14:18], buf[6:8])
	dst[18] = '-'
	hex.Encode(dst[19:23], buf[8:10])
	dst[23] = '-'
	hex.Encode(dst[24:], buf[10:])
	return string(dst)
}
