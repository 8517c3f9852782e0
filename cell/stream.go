package cell

import "fmt"

// UnpackAll splits b, a concatenation of cells, into individual cells. It
// stops at the first cell that fails to unpack, returning the cells before it
// and the offset at which the failing cell starts. On success the offset is
// len(b).
func (c *Codec) UnpackAll(b []byte, linkVersion uint16) ([]Cell, int, error) {
	logger := c.logger()

	var cells []Cell
	offset := 0
	for offset < len(b) {
		cl, n, err := c.Unpack(b[offset:], linkVersion)
		if err != nil {
			return cells, offset, fmt.Errorf("cell %d at offset %d: %w", len(cells), offset, err)
		}
		logger.Debug("unpacked cell",
			"command", cl.Kind().Name,
			"circ_id", cl.Header().CircID,
			"size", n,
			"offset", offset)
		cells = append(cells, cl)
		offset += n
	}
	return cells, offset, nil
}
