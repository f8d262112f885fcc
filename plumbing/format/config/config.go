// Package config implements a generic representation of a git INI-style
// config file: sections, subsections (used for "remote \"NAME\"" style
// entries) and options. gitcore only ever needs to read the
// "remote \"NAME\"" / "url" surface (spec.md §6); this package is kept
// general the way go-git's plumbing/format/config is, since that is the
// idiomatic shape for an INI tree in this codebase.
package config

// Config is a parsed INI-style configuration file.
type Config struct {
	Sections Sections
}

// New returns an empty Config.
func New() *Config { return &Config{} }

// Section returns the named top-level section, creating it if absent.
func (c *Config) Section(name string) *Section {
	for _, s := range c.Sections {
		if s.IsName(name) {
			return s
		}
	}
	s := &Section{Name: name}
	c.Sections = append(c.Sections, s)
	return s
}

// HasSection reports whether name exists.
func (c *Config) HasSection(name string) bool {
	for _, s := range c.Sections {
		if s.IsName(name) {
			return true
		}
	}
	return false
}

// AddOption appends key=value under section/subsection, creating both
// as needed. Pass subsection == "" for a plain section.
func (c *Config) AddOption(section, subsection, key, value string) *Config {
	if subsection == "" {
		c.Section(section).AddOption(key, value)
	} else {
		c.Section(section).Subsection(subsection).AddOption(key, value)
	}
	return c
}

// GetOption returns the value of the first matching key under
// section/subsection, or "" if absent.
func (c *Config) GetOption(section, subsection, key string) string {
	if !c.HasSection(section) {
		return ""
	}
	s := c.Section(section)
	if subsection == "" {
		return s.Options.Get(key)
	}
	if !s.HasSubsection(subsection) {
		return ""
	}
	return s.Subsection(subsection).Options.Get(key)
}

// Sections is an ordered list of Section.
type Sections []*Section

// Section is a named [section] or [section "subsection"] group.
type Section struct {
	Name        string
	Options     Options
	Subsections Subsections
}

// IsName reports whether s is named (case-sensitively; section names in
// the remote surface are case-sensitive by convention here).
func (s *Section) IsName(name string) bool { return s.Name == name }

// AddOption appends key=value to s.
func (s *Section) AddOption(key, value string) *Section {
	s.Options = append(s.Options, &Option{Key: key, Value: value})
	return s
}

// Subsection returns the named subsection, creating it if absent.
func (s *Section) Subsection(name string) *Subsection {
	for _, ss := range s.Subsections {
		if ss.Name == name {
			return ss
		}
	}
	ss := &Subsection{Name: name}
	s.Subsections = append(s.Subsections, ss)
	return ss
}

// HasSubsection reports whether name exists under s.
func (s *Section) HasSubsection(name string) bool {
	for _, ss := range s.Subsections {
		if ss.Name == name {
			return true
		}
	}
	return false
}

// Subsections is an ordered list of Subsection.
type Subsections []*Subsection

// Subsection is a [section "name"] group, e.g. remote "origin".
type Subsection struct {
	Name    string
	Options Options
}

// AddOption appends key=value to ss.
func (ss *Subsection) AddOption(key, value string) *Subsection {
	ss.Options = append(ss.Options, &Option{Key: key, Value: value})
	return ss
}

// Options is an ordered list of Option.
type Options []*Option

// Option is a single key = value pair.
type Option struct {
	Key   string
	Value string
}

// Get returns the value of the first option matching key, or "".
func (opts Options) Get(key string) string {
	for _, o := range opts {
		if o.Key == key {
			return o.Value
		}
	}
	return ""
}
