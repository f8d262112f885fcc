package object

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-vcs/gitcore/plumbing"
)

// Signature is an author or committer identity line: "NAME <EMAIL>
// UNIXTIME TZ".
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Decode parses a signature line's value (everything after "author " /
// "committer ").
func (s *Signature) Decode(line []byte) error {
	open := bytes.LastIndexByte(line, '<')
	close := bytes.LastIndexByte(line, '>')
	if open < 0 || close < 0 || close < open {
		return fmt.Errorf("%w: malformed signature %q", plumbing.ErrCorruptObject, line)
	}

	s.Name = string(bytes.TrimSpace(line[:open]))
	s.Email = string(line[open+1 : close])

	rest := bytes.TrimSpace(line[close+1:])
	fields := bytes.Fields(rest)
	if len(fields) != 2 {
		return fmt.Errorf("%w: malformed signature timestamp %q", plumbing.ErrCorruptObject, rest)
	}

	sec, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid timestamp %q", plumbing.ErrCorruptObject, fields[0])
	}

	loc, err := parseTZ(string(fields[1]))
	if err != nil {
		return fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
	}

	s.When = time.Unix(sec, 0).In(loc)
	return nil
}

// String renders the signature as it appears in a commit object.
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), formatTZ(s.When))
}

func formatTZ(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	h := offset / 3600
	m := (offset % 3600) / 60
	return fmt.Sprintf("%s%02d%02d", sign, h, m)
}

func parseTZ(s string) (*time.Location, error) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return nil, fmt.Errorf("invalid timezone %q", s)
	}
	h, err := strconv.Atoi(s[1:3])
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q", s)
	}
	m, err := strconv.Atoi(s[3:5])
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q", s)
	}
	offset := h*3600 + m*60
	if s[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(s, offset), nil
}
