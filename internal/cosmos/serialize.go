package cosmos

import (
	"bytes"
	"fmt"
	"io"

	"github.com/topdown/cosmos/internal/introspect"
)

// solvable is the serialized form: everything needed to resume the
// simulation bit-exactly. Caches are not part of it.
type solvable struct {
	Common      *Common
	Significant *Significant
}

func (c *Cosmos) solvable() solvable {
	return solvable{Common: &c.common, Significant: c.sig}
}

// WriteTo writes the common and significant state to w.
func (c *Cosmos) WriteTo(w io.Writer) (int64, error) {
	data, err := introspect.Marshal(c.solvable())
	if err != nil {
		return 0, fmt.Errorf("marshal cosmos: %w", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadFrom replaces the whole state with the one in r and rebuilds every
// cache. On error the cosmos is left unchanged.
func (c *Cosmos) ReadFrom(r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(r)
	if err != nil {
		return n, fmt.Errorf("read cosmos: %w", err)
	}
	in := solvable{Common: &Common{}, Significant: &Significant{}}
	if err := introspect.Unmarshal(buf.Bytes(), &in); err != nil {
		return n, fmt.Errorf("unmarshal cosmos: %w", err)
	}
	c.common = *in.Common
	c.adopt(in.Significant)
	c.pending = c.pending[:0]
	c.queue.Clear()
	c.ReinferAllEntities()
	return n, nil
}

// Checksum digests the serialized state; equal simulations have equal
// checksums.
func (c *Cosmos) Checksum() ([32]byte, error) {
	return introspect.Checksum(c.solvable())
}

// Fields lists every serialized field of h's components as
// "store.path" → value.
func (c *Cosmos) Fields(h Handle) map[string]string {
	out := make(map[string]string)
	if h.Dead() {
		return out
	}
	for _, ns := range c.named {
		comp, ok := ns.get(h.id)
		if !ok {
			continue
		}
		for path, v := range introspect.FieldStrings(comp) {
			if path == "" {
				out[ns.name] = v
				continue
			}
			out[ns.name+"."+path] = v
		}
	}
	return out
}
