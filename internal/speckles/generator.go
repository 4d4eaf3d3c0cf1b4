package speckles

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/despeckle/pkg/logger"
)

// Generator produces reproducible speckled paths.
type Generator struct {
	rng       *rand.Rand
	area      float64
	maxBlobs  int
	maxSpecks int
}

// NewGenerator returns a Generator for the given threshold. Every blob it
// draws scores well above area and every speck well below it.
func NewGenerator(seed uint64, area float64, maxBlobs, maxSpecks int) *Generator {
	if area <= 0 {
		area = 1
	}
	return &Generator{
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		area:      area,
		maxBlobs:  max(maxBlobs, 1),
		maxSpecks: max(maxSpecks, 1),
	}
}

// Case draws one path. Roughly one case in five contains specks only, so the
// expected outcome is removal.
func (g *Generator) Case() Case {
	blobs := 1 + g.rng.IntN(g.maxBlobs)
	if g.rng.IntN(5) == 0 {
		blobs = 0
	}
	specks := 1 + g.rng.IntN(g.maxSpecks)

	kinds := make([]bool, 0, blobs+specks)
	for i := 0; i < blobs; i++ {
		kinds = append(kinds, true)
	}
	for i := 0; i < specks; i++ {
		kinds = append(kinds, false)
	}
	g.rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })

	var sb strings.Builder
	for _, blob := range kinds {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		g.shape(&sb, blob)
	}
	return Case{ID: uuid.NewString(), D: sb.String(), Blobs: blobs, Specks: specks}
}

// Cases draws n paths.
func (g *Generator) Cases(ctx context.Context, n int) ([]Case, error) {
	logger.Get().Info(ctx, "generating speckled paths", logger.Int("paths", n))
	cases := make([]Case, n)
	for i := range cases {
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		}
		cases[i] = g.Case()
	}
	return cases, nil
}

// shape writes a square or a circle. Blob sizes are chosen so that even the
// one-sample-per-curve polygon of a circle (a square of area 2r²) clears the
// threshold; speck sizes so that even the true circle area stays under it.
func (g *Generator) shape(sb *strings.Builder, blob bool) {
	x, y := g.rng.Float64()*canvas, g.rng.Float64()*canvas
	u := g.rng.Float64()
	circle := g.rng.IntN(2) == 0

	switch {
	case blob && circle:
		r := math.Sqrt(blobFactor*g.area/2) * (1 + u)
		writeCircle(sb, x, y, r)
	case blob:
		s := math.Sqrt(blobFactor*g.area) * (1 + u)
		writeSquare(sb, x, y, s)
	case circle:
		r := math.Sqrt(speckFraction*g.area/math.Pi) * (0.2 + 0.8*u)
		writeCircle(sb, x, y, r)
	default:
		s := math.Sqrt(speckFraction*g.area) * (0.2 + 0.8*u)
		writeSquare(sb, x, y, s)
	}
}

func writeSquare(sb *strings.Builder, x, y, s float64) {
	fmt.Fprintf(sb, "M%s %s h%s v%s h%s Z", num(x), num(y), num(s), num(s), num(-s))
}

// writeCircle writes a circle of radius r centred at (x, y) as four cubics.
func writeCircle(sb *strings.Builder, x, y, r float64) {
	k := r * circleKappa
	fmt.Fprintf(sb, "M%s %s", num(x+r), num(y))
	fmt.Fprintf(sb, " C%s %s %s %s %s %s", num(x+r), num(y+k), num(x+k), num(y+r), num(x), num(y+r))
	fmt.Fprintf(sb, " C%s %s %s %s %s %s", num(x-k), num(y+r), num(x-r), num(y+k), num(x-r), num(y))
	fmt.Fprintf(sb, " C%s %s %s %s %s %s", num(x-r), num(y-k), num(x-k), num(y-r), num(x), num(y-r))
	fmt.Fprintf(sb, " C%s %s %s %s %s %s Z", num(x+k), num(y-r), num(x+r), num(y-k), num(x+r), num(y))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Document renders cases as an SVG document with one path element per case,
// using each case ID as the element id.
func Document(cases []Case) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d">`, int(canvas), int(canvas))
	sb.WriteString("\n")
	for _, c := range cases {
		fmt.Fprintf(&sb, `  <path id="%s" d="%s"/>`, c.ID, c.D)
		sb.WriteString("\n")
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}
