package graphviz

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/fsmflow/pkg/layout"
)

const samplePlain = `graph 1 3.5 4.25
node red 1.0417 3.8333 2.0833 0.83333 "" solid box black lightgrey
node "go \"fast\"" 1.0417 2.1667 2.0833 0.83333 "" solid box black lightgrey
edge red "go \"fast\"" 4 1.0417 3.4167 1.0417 3.0 1.0417 2.8 1.0417 2.6 solid black
stop
`

func TestParsePlain(t *testing.T) {
	got, err := parsePlain([]byte(samplePlain))
	if err != nil {
		t.Fatalf("parsePlain: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d nodes, want 2: %v", len(got), got)
	}

	red := got["red"]
	if !approx(red.X, 75) || !approx(red.Y, 30) {
		t.Errorf("red = %+v, want (75,30)", red)
	}
	fast, ok := got[`go "fast"`]
	if !ok {
		t.Fatalf("quoted node name not unescaped: %v", got)
	}
	if !approx(fast.Y, 150) {
		t.Errorf("fast.Y = %v, want 150", fast.Y)
	}
}

func TestParsePlainErrors(t *testing.T) {
	tests := map[string]string{
		"short graph": "graph 1\n",
		"bad x":       "graph 1 2 2\nnode a x 1 1 1\n",
		"short node":  "graph 1 2 2\nnode a\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parsePlain([]byte(in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSplitPlain(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"node a 1 2", []string{"node", "a", "1", "2"}},
		{`node "a b" 1`, []string{"node", "a b", "1"}},
		{`node "" 1`, []string{"node", "", "1"}},
		{`node "x\\y" 1`, []string{"node", `x\y`, "1"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := splitPlain(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitPlain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLayoutDOT(t *testing.T) {
	dot := layoutDOT([]string{"red", "green"}, []layout.EdgePair{{Source: "red", Target: "green"}}, layout.EngineOptions{
		Direction: layout.LeftToRight,
		Size:      layout.Size{Width: 144, Height: 72},
		Spacing:   layout.Spacing{NodeSep: 72, RankSep: 36},
	})

	for _, want := range []string{
		"rankdir=LR;",
		"nodesep=1;",
		"ranksep=0.5;",
		"width=2, height=1",
		`"red" -> "green";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestInchesKeepsPrecision(t *testing.T) {
	tests := map[float64]string{
		72:  "1",
		36:  "0.5",
		150: "2.0833333333333335",
		0:   "0",
	}
	for px, want := range tests {
		if got := inches(px); got != want {
			t.Errorf("inches(%v) = %q, want %q", px, got, want)
		}
	}
}

func TestParsePlainRoundsCentres(t *testing.T) {
	in := "graph 1 4 2\nnode a -0.00007 1.99993 2.0833 0.8333 \"\" solid box black lightgrey\nnode b 2.0834 0.5 2.0833 0.8333 \"\" solid box black lightgrey\nstop\n"
	got, err := parsePlain([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	a := got["a"]
	if a.X != 0 || math.Signbit(a.X) || a.Y != 0 || math.Signbit(a.Y) {
		t.Errorf("a = %+v, want exactly (0,0)", a)
	}
	if b := got["b"]; b.X != 150 || b.Y != 108 {
		t.Errorf("b = %+v, want (150,108)", b)
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 0.1 }
