package path

import (
	stdstrconv "strconv"

	"github.com/okian/despeckle/internal/domain/geom"
	"github.com/tdewolff/parse/v2/strconv"
)

// argCount is the number of numeric arguments each command letter takes.
var argCount = map[byte]int{
	'M': 2,
	'Z': 0,
	'L': 2,
	'H': 1,
	'V': 1,
	'C': 6,
	'S': 4,
	'Q': 4,
	'T': 2,
	'A': 7,
}

func skipSeparators(b []byte) int {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == ',' || b[i] == '\n' || b[i] == '\r' || b[i] == '\t' || b[i] == '\f') {
		i++
	}
	return i
}

// number reads one SVG number from the front of b and returns it with the
// number of bytes consumed, or 0 if b does not start with a number. The
// extent is found by the tdewolff scanner; the value itself is converted with
// correct rounding so that serialized coordinates parse back bit-for-bit.
func number(b []byte) (float64, int) {
	_, n := strconv.ParseFloat(b)
	if n == 0 {
		return 0, 0
	}
	v, err := stdstrconv.ParseFloat(string(b[:n]), 64)
	if err != nil {
		return 0, 0
	}
	return v, n
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isNumberStart(c byte) bool {
	return '0' <= c && c <= '9' || c == '.' || c == '-' || c == '+'
}

// Parse reads SVG path data and normalizes it to absolute MoveTo, LineTo,
// CubeTo and Close commands. Relative commands are resolved against the
// current point, H and V become LineTo, S and T reflections are expanded,
// and quadratic curves are degree-elevated to cubics.
//
// Elliptical arcs and unknown command letters fail with an
// *UnsupportedCommandError; syntax errors wrap ErrMalformedPath.
func Parse(d string) (Path, error) {
	b := []byte(d)
	i := skipSeparators(b)
	if i == len(b) {
		return nil, nil
	}
	if !isLetter(b[i]) {
		return nil, malformed("path data must start with a command at offset %d", i)
	}

	var (
		p          Path
		f          [7]float64
		cur, start geom.Point
		ctrl       geom.Point // last cubic (C/S) or quadratic (Q/T) control point
		prev       byte
	)
	for {
		i += skipSeparators(b[i:])
		if i >= len(b) {
			break
		}

		cmd := prev
		offset := i
		switch {
		case isLetter(b[i]):
			cmd = b[i]
			i++
		case !isNumberStart(b[i]):
			return nil, malformed("unexpected %q at offset %d", b[i], i)
		case prev == 0 || prev == 'Z' || prev == 'z':
			return nil, malformed("number without a command at offset %d", i)
		}

		upper := cmd
		if 'a' <= cmd && cmd <= 'z' {
			upper -= 'a' - 'A'
		}
		n, known := argCount[upper]
		if !known || upper == 'A' {
			return nil, &UnsupportedCommandError{Command: string(cmd), Offset: offset}
		}
		for j := 0; j < n; j++ {
			i += skipSeparators(b[i:])
			num, m := number(b[i:])
			if m == 0 {
				return nil, malformed("command %q expects %d numbers, got %d at offset %d", cmd, n, j, i)
			}
			f[j] = num
			i += m
		}

		rel := cmd != upper
		abs := func(x, y float64) geom.Point {
			if rel {
				return geom.Pt(cur.X+x, cur.Y+y)
			}
			return geom.Pt(x, y)
		}

		switch upper {
		case 'M':
			cur = abs(f[0], f[1])
			start = cur
			p = append(p, Move(cur))
			// Further coordinate pairs after a moveto are implicit linetos.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'Z':
			cur = start
			p = append(p, ClosePath())
		case 'L':
			cur = abs(f[0], f[1])
			p = append(p, Line(cur))
		case 'H':
			if rel {
				cur.X += f[0]
			} else {
				cur.X = f[0]
			}
			p = append(p, Line(cur))
		case 'V':
			if rel {
				cur.Y += f[0]
			} else {
				cur.Y = f[0]
			}
			p = append(p, Line(cur))
		case 'C':
			c1, c2, end := abs(f[0], f[1]), abs(f[2], f[3]), abs(f[4], f[5])
			p = append(p, Cube(c1, c2, end))
			ctrl, cur = c2, end
		case 'S':
			c1 := cur
			if isCubic(prev) {
				c1 = cur.Mul(2).Sub(ctrl)
			}
			c2, end := abs(f[0], f[1]), abs(f[2], f[3])
			p = append(p, Cube(c1, c2, end))
			ctrl, cur = c2, end
		case 'Q':
			q, end := abs(f[0], f[1]), abs(f[2], f[3])
			c1, c2 := geom.QuadToCubic(cur, q, end)
			p = append(p, Cube(c1, c2, end))
			ctrl, cur = q, end
		case 'T':
			q := cur
			if isQuad(prev) {
				q = cur.Mul(2).Sub(ctrl)
			}
			end := abs(f[0], f[1])
			c1, c2 := geom.QuadToCubic(cur, q, end)
			p = append(p, Cube(c1, c2, end))
			ctrl, cur = q, end
		}
		prev = cmd
	}
	return p, nil
}

// MustParse is like Parse but panics on error. It is intended for tests and
// static path data.
func MustParse(d string) Path {
	p, err := Parse(d)
	if err != nil {
		panic(err)
	}
	return p
}

func isCubic(cmd byte) bool {
	return cmd == 'C' || cmd == 'c' || cmd == 'S' || cmd == 's'
}

func isQuad(cmd byte) bool {
	return cmd == 'Q' || cmd == 'q' || cmd == 'T' || cmd == 't'
}
