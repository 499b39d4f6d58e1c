package introspect

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var order = binary.LittleEndian

// ErrCorrupt reports input whose lengths cannot be satisfied by the bytes
// that follow them.
var ErrCorrupt = errors.New("introspect: corrupt input")

// sizedReader knows how many unread bytes it holds.
type sizedReader interface {
	io.Reader
	Len() int
}

// Write serializes v recursively: fixed-layout values as raw little-endian
// bytes, everything else field by field. Only exported fields are written.
func Write(w io.Writer, v any) error {
	return write(w, reflect.ValueOf(v))
}

// Read is the inverse of Write. v must be a non-nil pointer. Lengths in
// the input are checked against the bytes left, so corrupt input fails
// with ErrCorrupt instead of allocating.
func Read(r io.Reader, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("read into %T: %w", v, ErrUnsupportedKind)
	}
	sr, ok := r.(sizedReader)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		sr = bytes.NewReader(data)
	}
	return read(sr, rv.Elem())
}

// Marshal returns the Write encoding of v.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data produced by Marshal into v.
func Unmarshal(data []byte, v any) error {
	return Read(bytes.NewReader(data), v)
}

// Checksum is the BLAKE2b-256 digest of the Write encoding of v. Two
// deterministic simulations in the same state have equal checksums.
func Checksum(v any) ([32]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(data), nil
}

func writeLen(w io.Writer, n int) error {
	return binary.Write(w, order, uint32(n))
}

// readLen reads a length prefix of entries that take at least entrySize
// bytes each.
func readLen(r sizedReader, entrySize int) (int, error) {
	var n uint32
	if err := binary.Read(r, order, &n); err != nil {
		return 0, err
	}
	if uint64(n)*uint64(max(entrySize, 1)) > uint64(r.Len()) {
		return 0, fmt.Errorf("length %d with %d bytes left: %w", n, r.Len(), ErrCorrupt)
	}
	return int(n), nil
}

// minSize is the fewest bytes Write emits for a value of type t.
func minSize(t reflect.Type) int {
	if fixedSize(t) {
		return int(t.Size())
	}
	switch t.Kind() {
	case reflect.Int, reflect.Uint:
		return 8
	case reflect.String, reflect.Slice, reflect.Map:
		return 4
	case reflect.Pointer:
		return 1
	case reflect.Array:
		return t.Len() * minSize(t.Elem())
	case reflect.Struct:
		n := 0
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				n += minSize(t.Field(i).Type)
			}
		}
		return n
	}
	return 0
}

func write(w io.Writer, v reflect.Value) error {
	t := v.Type()
	if fixedSize(t) {
		if t.Size() == 0 {
			return nil
		}
		return binary.Write(w, order, v.Interface())
	}
	switch v.Kind() {
	case reflect.Int:
		return binary.Write(w, order, v.Int())
	case reflect.Uint:
		return binary.Write(w, order, v.Uint())
	case reflect.String:
		if err := writeLen(w, v.Len()); err != nil {
			return err
		}
		_, err := io.WriteString(w, v.String())
		return err
	case reflect.Pointer:
		if v.IsNil() {
			return binary.Write(w, order, uint8(0))
		}
		if err := binary.Write(w, order, uint8(1)); err != nil {
			return err
		}
		return write(w, v.Elem())
	case reflect.Slice:
		if err := writeLen(w, v.Len()); err != nil {
			return err
		}
		if fixedSize(t.Elem()) && t.Elem().Size() > 0 {
			return binary.Write(w, order, v.Interface())
		}
		for i := 0; i < v.Len(); i++ {
			if err := write(w, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := write(w, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		keys, err := sortedKeys(v)
		if err != nil {
			return err
		}
		if err := writeLen(w, len(keys)); err != nil {
			return err
		}
		for _, k := range keys {
			if err := write(w, k); err != nil {
				return err
			}
			if err := write(w, v.MapIndex(k)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := write(w, v.Field(i)); err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name(), t.Field(i).Name, err)
			}
		}
		return nil
	}
	return fmt.Errorf("write %s: %w", t, ErrUnsupportedKind)
}

func read(r sizedReader, v reflect.Value) error {
	t := v.Type()
	if fixedSize(t) {
		if t.Size() == 0 {
			return nil
		}
		return binary.Read(r, order, v.Addr().Interface())
	}
	switch v.Kind() {
	case reflect.Int:
		var i int64
		if err := binary.Read(r, order, &i); err != nil {
			return err
		}
		v.SetInt(i)
		return nil
	case reflect.Uint:
		var u uint64
		if err := binary.Read(r, order, &u); err != nil {
			return err
		}
		v.SetUint(u)
		return nil
	case reflect.String:
		n, err := readLen(r, 1)
		if err != nil {
			return err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		v.SetString(string(buf))
		return nil
	case reflect.Pointer:
		var present uint8
		if err := binary.Read(r, order, &present); err != nil {
			return err
		}
		if present == 0 {
			v.SetZero()
			return nil
		}
		elem := reflect.New(t.Elem())
		if err := read(r, elem.Elem()); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	case reflect.Slice:
		n, err := readLen(r, minSize(t.Elem()))
		if err != nil {
			return err
		}
		s := reflect.MakeSlice(t, n, n)
		if n > 0 && fixedSize(t.Elem()) && t.Elem().Size() > 0 {
			if err := binary.Read(r, order, s.Interface()); err != nil {
				return err
			}
		} else {
			for i := 0; i < n; i++ {
				if err := read(r, s.Index(i)); err != nil {
					return err
				}
			}
		}
		v.Set(s)
		return nil
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := read(r, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		n, err := readLen(r, minSize(t.Key())+minSize(t.Elem()))
		if err != nil {
			return err
		}
		m := reflect.MakeMapWithSize(t, n)
		for i := 0; i < n; i++ {
			k := reflect.New(t.Key()).Elem()
			if err := read(r, k); err != nil {
				return err
			}
			e := reflect.New(t.Elem()).Elem()
			if err := read(r, e); err != nil {
				return err
			}
			m.SetMapIndex(k, e)
		}
		v.Set(m)
		return nil
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := read(r, v.Field(i)); err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name(), t.Field(i).Name, err)
			}
		}
		return nil
	}
	return fmt.Errorf("read %s: %w", t, ErrUnsupportedKind)
}

// sortedKeys orders map keys so that map encoding is deterministic.
func sortedKeys(m reflect.Value) ([]reflect.Value, error) {
	keys := m.MapKeys()
	switch m.Type().Key().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) })
	case reflect.String:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) })
	default:
		return nil, fmt.Errorf("map key %s: %w", m.Type().Key(), ErrUnsupportedKind)
	}
	return keys, nil
}
