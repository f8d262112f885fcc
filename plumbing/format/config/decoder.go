package config

import (
	"io"

	"github.com/go-git/gcfg/v2"
)

// Decoder reads and decodes an INI-style config stream.
type Decoder struct {
	io.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder { return &Decoder{r} }

// Decode parses the whole stream into c.
func (d *Decoder) Decode(c *Config) error {
	cb := func(s, ss, k, v string, _ bool) error {
		if ss == "" && k == "" {
			c.Section(s)
			return nil
		}
		if ss != "" && k == "" {
			c.Section(s).Subsection(ss)
			return nil
		}
		c.AddOption(s, ss, k, v)
		return nil
	}
	return gcfg.ReadWithCallback(d, cb)
}
