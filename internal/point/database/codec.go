package database

import (
	"bytes"
	"fmt"
	"time"

	xdr "github.com/davecgh/go-xdr/xdr2"

	"github.com/go-sod/quad/internal/byteutil"
	"github.com/go-sod/quad/internal/point/model"
)

// record is the XDR layout of a stored point.
type record struct {
	ID        [16]byte
	Layer     string
	X         float64
	Y         float64
	Extra     []byte
	CreatedAt int64
}

func encode(p model.Point) ([]byte, error) {
	buf := byteutil.Buffer()
	defer byteutil.Release(buf)
	r := record{
		ID:        p.ID,
		Layer:     p.Layer,
		X:         p.X,
		Y:         p.Y,
		Extra:     p.Extra,
		CreatedAt: p.CreatedAt.UnixNano(),
	}
	if _, err := xdr.Marshal(buf, &r); err != nil {
		return nil, fmt.Errorf("xdr marshal point %s: %w", p.ID, err)
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

func decode(b []byte) (model.Point, error) {
	var r record
	if _, err := xdr.Unmarshal(bytes.NewReader(b), &r); err != nil {
		return model.Point{}, fmt.Errorf("xdr unmarshal point: %w", err)
	}
	p := model.Point{
		ID:        r.ID,
		Layer:     r.Layer,
		X:         r.X,
		Y:         r.Y,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
	}
	if len(r.Extra) > 0 {
		p.Extra = r.Extra
	}
	return p, nil
}
