package contour_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/despeckle/internal/domain/contour"
	"github.com/okian/despeckle/internal/domain/geom"
	"github.com/okian/despeckle/internal/domain/path"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

func commands(cs []contour.Contour) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Commands.String()
	}
	return out
}

func TestSplit(t *testing.T) {
	Convey("Given a compound path with two closed squares", t, func() {
		p := path.MustParse("M0 0L10 0L10 10L0 10Z M20 20L21 20L21 21L20 21Z")

		Convey("Then it splits into two contours in order", func() {
			cs := contour.Split(p)
			So(cmp.Diff([]string{
				"M 0 0 L 10 0 L 10 10 L 0 10 Z",
				"M 20 20 L 21 20 L 21 21 L 20 21 Z",
			}, commands(cs)), ShouldBeEmpty)
			So(cs[0].Index, ShouldEqual, 0)
			So(cs[1].Index, ShouldEqual, 1)
			So(cs[1].Closed(), ShouldBeTrue)
		})
	})

	Convey("Given consecutive close commands", t, func() {
		p := path.MustParse("M0 0L1 0L1 1Z Z z M5 5L6 5L6 6Z")

		Convey("Then no empty contour is produced", func() {
			cs := contour.Split(p)
			So(len(cs), ShouldEqual, 2)
		})
	})

	Convey("Given subpaths separated only by move commands", t, func() {
		p := path.MustParse("M0 0L4 0L4 4 M10 10L12 10L12 12")

		Convey("Then each move starts a new, unclosed contour", func() {
			cs := contour.Split(p)
			So(commands(cs), ShouldResemble, []string{
				"M 0 0 L 4 0 L 4 4",
				"M 10 10 L 12 10 L 12 12",
			})
			So(cs[0].Closed(), ShouldBeFalse)
		})
	})

	Convey("Given drawing that continues after a close", t, func() {
		p := path.MustParse("M5 5L10 5L10 10Z L5 0L0 0Z")

		Convey("Then the second contour starts with a synthesized move", func() {
			cs := contour.Split(p)
			So(commands(cs), ShouldResemble, []string{
				"M 5 5 L 10 5 L 10 10 Z",
				"M 5 5 L 5 0 L 0 0 Z",
			})
		})
	})

	Convey("Given an empty path", t, func() {
		So(contour.Split(nil), ShouldBeEmpty)
	})
}

func TestClosedPath(t *testing.T) {
	Convey("Given an unclosed contour", t, func() {
		c := contour.Split(path.MustParse("M0 0L4 0L4 4"))[0]

		Convey("Then ClosedPath appends a close without touching the original", func() {
			So(c.ClosedPath().String(), ShouldEqual, "M 0 0 L 4 0 L 4 4 Z")
			So(c.Commands.String(), ShouldEqual, "M 0 0 L 4 0 L 4 4")
		})
	})

	Convey("Given a closed contour", t, func() {
		c := contour.Split(path.MustParse("M0 0L4 0L4 4Z"))[0]

		Convey("Then ClosedPath leaves it unchanged", func() {
			So(c.ClosedPath().String(), ShouldEqual, "M 0 0 L 4 0 L 4 4 Z")
		})
	})
}

func TestApproximate(t *testing.T) {
	Convey("Given a polygonal contour", t, func() {
		c := contour.Split(path.MustParse("M0 0L10 0L10 10L0 10Z"))[0]

		Convey("Then points pass through and the ring is closed", func() {
			ring, st, err := contour.Approximate(c, 4)
			So(err, ShouldBeNil)
			So(st, ShouldResemble, contour.Stats{})
			So(ring, ShouldResemble, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}})
		})
	})

	Convey("Given a contour that already returns to its start", t, func() {
		c := contour.Split(path.MustParse("M0 0L10 0L10 10L0 0"))[0]

		Convey("Then no extra closing point is added", func() {
			ring, _, err := contour.Approximate(c, 4)
			So(err, ShouldBeNil)
			So(len(ring), ShouldEqual, 4)
		})
	})

	Convey("Given a contour whose end differs from its start in one coordinate only", t, func() {
		c := contour.Split(path.MustParse("M0 0L10 0L10 10L0 10L0 5"))[0]

		Convey("Then a closing point is still appended", func() {
			ring, _, err := contour.Approximate(c, 4)
			So(err, ShouldBeNil)
			So(ring[len(ring)-1], ShouldResemble, orb.Point{0, 0})
			So(len(ring), ShouldEqual, 6)
		})
	})

	Convey("Given a contour with a curve", t, func() {
		c := contour.Split(path.MustParse("M0 0L12 0C12 4 8 8 0 12Z"))[0]

		Convey("When approximating with 3 segments", func() {
			ring, st, err := contour.Approximate(c, 3)

			Convey("Then the curve contributes 3 samples ending exactly at its end point", func() {
				So(err, ShouldBeNil)
				So(st.Curves, ShouldEqual, 1)
				So(st.Degenerate, ShouldEqual, 0)
				// M, L, 3 samples, closing point
				So(len(ring), ShouldEqual, 6)
				So(ring[4], ShouldResemble, orb.Point{0, 12})
				So(ring[5], ShouldResemble, orb.Point{0, 0})
			})
		})
	})

	Convey("Given a contour with a zero-length curve", t, func() {
		c := contour.Contour{Commands: path.Path{
			path.Move(geom.Pt(0, 0)),
			path.Line(geom.Pt(5, 0)),
			path.Cube(geom.Pt(5, 0), geom.Pt(5, 0), geom.Pt(5, 0)),
			path.Line(geom.Pt(5, 5)),
		}}

		Convey("Then it is reported as degenerate, not as an error", func() {
			_, st, err := contour.Approximate(c, 4)
			So(err, ShouldBeNil)
			So(st.Degenerate, ShouldEqual, 1)
		})
	})

	Convey("Given malformed contours", t, func() {
		Convey("Then an empty contour is a malformed path", func() {
			_, _, err := contour.Approximate(contour.Contour{}, 4)
			So(errors.Is(err, path.ErrMalformedPath), ShouldBeTrue)
		})

		Convey("Then an unknown command kind is unsupported", func() {
			c := contour.Contour{Commands: path.Path{path.Move(geom.Pt(0, 0)), {Kind: path.Kind(42)}}}
			_, _, err := contour.Approximate(c, 4)
			So(errors.Is(err, path.ErrUnsupportedCommand), ShouldBeTrue)
		})
	})
}
