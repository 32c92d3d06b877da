package input

// Parser accumulates bytes from a device stream and cuts them into records.
// Reads from a device may end anywhere, so whatever is left over after the
// last whole record is kept until the next Feed.
//
// A Parser is not safe for concurrent use; each device session owns one.
type Parser struct {
	buf []byte
}

// Feed appends chunk to the pending bytes and returns every complete record,
// in stream order. Only a trailing partial record (fewer than RecordSize
// bytes) is retained.
func (p *Parser) Feed(chunk []byte) []Record {
	p.buf = append(p.buf, chunk...)
	if len(p.buf) < RecordSize {
		return nil
	}

	records := make([]Record, 0, len(p.buf)/RecordSize)
	off := 0
	for len(p.buf)-off >= RecordSize {
		records = append(records, Decode(p.buf[off:off+RecordSize]))
		off += RecordSize
	}

	n := copy(p.buf, p.buf[off:])
	p.buf = p.buf[:n]
	return records
}

// Pending returns the number of buffered bytes that do not yet form a record.
func (p *Parser) Pending() int {
	return len(p.buf)
}

// Reset drops any buffered partial record.
func (p *Parser) Reset() {
	p.buf = p.buf[:0]
}
