package dataset

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns an xxhash64 digest of the column names, kinds, values
// and null positions. Two datasets with the same content hash equally.
func (ds *Dataset) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte

	for _, c := range ds.cols {
		_, _ = d.WriteString(c.Name())
		_, _ = d.Write([]byte{0, byte(c.Kind())})

		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				_, _ = d.Write([]byte{0})
				continue
			}
			_, _ = d.Write([]byte{1})
			if v, ok := c.Float(i); ok {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
				_, _ = d.Write(buf[:])
				continue
			}
			s, _ := c.Text(i)
			binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
			_, _ = d.Write(buf[:])
			_, _ = d.WriteString(s)
		}
	}
	return d.Sum64()
}
