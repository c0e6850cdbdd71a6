package blobstore

import "io"

type progressReader struct {
	r     io.Reader
	total int64
	n     int64
	fn    ProgressFunc
}

// NewProgressReader reports every successful read from r to fn.
// When fn is nil, r is returned unchanged.
func NewProgressReader(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.n += int64(n)
		p.fn(p.n, p.total)
	}
	return n, err
}

// Percent returns transferred as a whole percentage of total, clamped to 0..100.
func Percent(transferred, total int64) int {
	if total <= 0 {
		return 100
	}
	pct := int(transferred * 100 / total)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
