package pathdata

import (
	"strconv"

	"github.com/matzehuels/chartsnap/pkg/errors"
)

// Command is one parsed path command. Op is the command letter as written
// (upper case is absolute, lower case relative). Args holds exactly
// Arity(Op) operands.
type Command struct {
	Op   byte
	Args []float64
}

// Absolute reports whether the command uses absolute coordinates.
func (c Command) Absolute() bool {
	return c.Op >= 'A' && c.Op <= 'Z'
}

// arity is the operand count per command letter (upper case).
var arity = map[byte]int{
	'M': 2,
	'L': 2,
	'H': 1,
	'V': 1,
	'C': 6,
	'S': 4,
	'Q': 4,
	'T': 2,
	'A': 7,
	'Z': 0,
}

// Arity returns the number of operands the command letter takes, or -1 for
// an unknown letter.
func Arity(op byte) int {
	n, ok := arity[upper(op)]
	if !ok {
		return -1
	}
	return n
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// Parse tokenizes path data into commands. Repeated operand groups after a
// command produce additional commands of the same kind, except after a
// moveto where they become lineto commands of the same case.
func Parse(d string) ([]Command, error) {
	s := scanner{data: d}
	var cmds []Command

	s.skipSeparators()
	if s.eof() {
		return nil, nil
	}

	var op byte
	for {
		s.skipSeparators()
		if s.eof() {
			break
		}

		c := s.peek()
		explicit := Arity(c) >= 0
		switch {
		case explicit:
			op = c
			s.pos++
		case op == 0:
			return nil, s.fail("path must start with a command")
		case upper(op) == 'Z':
			return nil, s.fail("unexpected operand after closepath")
		}

		n := Arity(op)
		args := make([]float64, n)
		for i := 0; i < n; i++ {
			s.skipSeparators()
			var (
				v   float64
				err error
			)
			if upper(op) == 'A' && (i == 3 || i == 4) {
				v, err = s.flag()
			} else {
				v, err = s.number()
			}
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		cmds = append(cmds, Command{Op: op, Args: args})

		// Subsequent implicit pairs of a moveto are linetos.
		switch op {
		case 'M':
			op = 'L'
		case 'm':
			op = 'l'
		}
	}

	if upper(cmds[0].Op) != 'M' {
		return nil, errors.Wrap(errors.ErrCodeGeometryParse,
			&errors.GeometryParseError{Data: clip(d), Offset: 0, Reason: "path must start with moveto"},
			"parse path data")
	}
	return cmds, nil
}

type scanner struct {
	data string
	pos  int
}

func (s *scanner) eof() bool  { return s.pos >= len(s.data) }
func (s *scanner) peek() byte { return s.data[s.pos] }

func (s *scanner) skipSeparators() {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\n', '\r', '\f', ',':
			s.pos++
		default:
			return
		}
	}
}

// number reads one floating point operand. A sign or a second decimal point
// terminates the previous number, so "1-2" and ".5.5" are two operands each.
func (s *scanner) number() (float64, error) {
	start := s.pos
	if !s.eof() && (s.peek() == '+' || s.peek() == '-') {
		s.pos++
	}
	digits := 0
	for !s.eof() && isDigit(s.peek()) {
		s.pos++
		digits++
	}
	if !s.eof() && s.peek() == '.' {
		s.pos++
		for !s.eof() && isDigit(s.peek()) {
			s.pos++
			digits++
		}
	}
	if digits == 0 {
		s.pos = start
		if s.eof() {
			return 0, s.fail("unexpected end of path data")
		}
		return 0, s.fail("expected number")
	}
	if !s.eof() && (s.peek() == 'e' || s.peek() == 'E') {
		mark := s.pos
		s.pos++
		if !s.eof() && (s.peek() == '+' || s.peek() == '-') {
			s.pos++
		}
		expDigits := 0
		for !s.eof() && isDigit(s.peek()) {
			s.pos++
			expDigits++
		}
		if expDigits == 0 {
			s.pos = mark
		}
	}
	v, err := strconv.ParseFloat(s.data[start:s.pos], 64)
	if err != nil {
		s.pos = start
		return 0, s.fail("invalid number")
	}
	return v, nil
}

// flag reads an arc flag, which is a single 0 or 1 that need not be
// separated from what follows.
func (s *scanner) flag() (float64, error) {
	if s.eof() {
		return 0, s.fail("unexpected end of path data")
	}
	switch s.peek() {
	case '0':
		s.pos++
		return 0, nil
	case '1':
		s.pos++
		return 1, nil
	}
	return 0, s.fail("expected arc flag")
}

func (s *scanner) fail(reason string) error {
	return errors.Wrap(errors.ErrCodeGeometryParse,
		&errors.GeometryParseError{Data: clip(s.data), Offset: s.pos, Reason: reason},
		"parse path data")
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func clip(d string) string {
	const max = 64
	if len(d) > max {
		return d[:max] + "..."
	}
	return d
}
