// Package path models absolute SVG path data as a closed set of commands
// and converts it to and from its textual form.
package path

import (
	"strconv"
	"strings"

	"github.com/okian/despeckle/internal/domain/geom"
)

// Kind identifies a path command. The zero value is not a valid command.
type Kind int

const (
	MoveTo Kind = iota + 1
	LineTo
	CubeTo
	Close
)

func (k Kind) String() string {
	switch k {
	case MoveTo:
		return "M"
	case LineTo:
		return "L"
	case CubeTo:
		return "C"
	case Close:
		return "Z"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Command is one absolute path command. MoveTo and LineTo use End only,
// CubeTo uses C1, C2 and End, Close uses nothing. A CubeTo starts at the
// end point of the preceding command.
type Command struct {
	Kind Kind
	C1   geom.Point
	C2   geom.Point
	End  geom.Point
}

func Move(p geom.Point) Command { return Command{Kind: MoveTo, End: p} }
func Line(p geom.Point) Command { return Command{Kind: LineTo, End: p} }
func ClosePath() Command        { return Command{Kind: Close} }

// Cube returns a cubic Bézier command through control points c1 and c2.
func Cube(c1, c2, end geom.Point) Command {
	return Command{Kind: CubeTo, C1: c1, C2: c2, End: end}
}

// Path is a compound path: one or more subpaths in drawing order.
type Path []Command

// Closed reports whether the last command of p is a Close.
func (p Path) Closed() bool {
	return len(p) > 0 && p[len(p)-1].Kind == Close
}

// String serializes p as absolute SVG path data, e.g. "M 0 0 L 10 0 Z".
// Coordinates use the shortest representation that parses back to the same
// float64, so Parse(p.String()) reproduces p exactly.
func (p Path) String() string {
	var sb strings.Builder
	p.AppendTo(&sb)
	return sb.String()
}

// AppendTo appends the serialized form of p to sb.
func (p Path) AppendTo(sb *strings.Builder) {
	for i, c := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.Kind.String())
		switch c.Kind {
		case MoveTo, LineTo:
			writePoint(sb, c.End)
		case CubeTo:
			writePoint(sb, c.C1)
			writePoint(sb, c.C2)
			writePoint(sb, c.End)
		}
	}
}

func writePoint(sb *strings.Builder, pt geom.Point) {
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(pt.X, 'f', -1, 64))
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(pt.Y, 'f', -1, 64))
}
