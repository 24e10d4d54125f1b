package api

import (
	"io"
	"math"
)

// Percent rounds loaded/total to a whole percentage in [0, 100].
func Percent(loaded, total int64) int {
	if total <= 0 {
		return 0
	}
	if loaded >= total {
		return 100
	}
	return int(math.Round(float64(loaded) * 100 / float64(total)))
}

// progressReader counts bytes as the transport pulls them and reports the
// percentage whenever it changes.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.report != nil && n > 0 {
		if pct := Percent(p.read, p.total); pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
