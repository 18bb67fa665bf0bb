package http

import "strings"

// HeaderField is a single name/value pair as it appears on the wire.
type HeaderField struct {
	Name  string
	Value string
}

// Headers is an ordered list of header fields. Unlike [net/http.Header],
// insertion order and duplicated names are preserved and names are not
// canonicalized, lookups are case-insensitive.
type Headers []HeaderField

func (h *Headers) Add(name, value string) {
	*h = append(*h, HeaderField{name, value})
}

// Get returns the value of the first field named name, or "".
func (h Headers) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Values returns the values of all fields named name, in order.
func (h Headers) Values(name string) []string {
	var vs []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			vs = append(vs, f.Value)
		}
	}
	return vs
}

func (h Headers) Has(name string) bool {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Del removes every field named name.
func (h *Headers) Del(name string) {
	kept := (*h)[:0]
	for _, f := range *h {
		if !strings.EqualFold(f.Name, name) {
			kept = append(kept, f)
		}
	}
	*h = kept
}

func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	return append(Headers(nil), h...)
}
