package oracle

import (
	"sync"

	"nft_auction/internal/domain/value"
)

// Directory хранит экземпляры Reader по их адресам; аукцион ссылается
// на Reader по адресу, зафиксированному при создании.
type Directory struct {
	mu      sync.RWMutex
	readers map[value.Address]*Reader
}

func NewDirectory(readers ...*Reader) *Directory {
	d := &Directory{readers: make(map[value.Address]*Reader, len(readers))}
	for _, r := range readers {
		d.Register(r)
	}
	return d
}

func (d *Directory) Register(r *Reader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readers[r.Address()] = r
}

func (d *Directory) Get(address value.Address) (*Reader, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.readers[address]
	return r, ok
}

func (d *Directory) List() []*Reader {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Reader, 0, len(d.readers))
	for _, r := range d.readers {
		out = append(out, r)
	}
	return out
}
