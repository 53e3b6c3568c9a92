package graphviz

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/fsmflow/pkg/layout"
)

// parsePlain reads node centres from Graphviz "plain" output and converts
// them to pixels with y growing downwards.
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 ... xn yn [label xl yl] style color
//	stop
func parsePlain(data []byte) (map[string]layout.Point, error) {
	var (
		height float64
		scale  = 1.0
		out    = make(map[string]layout.Point)
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for lineNo := 1; sc.Scan(); lineNo++ {
		fields := splitPlain(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, fmt.Errorf("plain line %d: short graph record", lineNo)
			}
			var err error
			if scale, err = strconv.ParseFloat(fields[1], 64); err != nil {
				return nil, fmt.Errorf("plain line %d: scale: %w", lineNo, err)
			}
			if height, err = strconv.ParseFloat(fields[3], 64); err != nil {
				return nil, fmt.Errorf("plain line %d: height: %w", lineNo, err)
			}
		case "node":
			if len(fields) < 4 {
				return nil, fmt.Errorf("plain line %d: short node record", lineNo)
			}
			x, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("plain line %d: x: %w", lineNo, err)
			}
			y, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("plain line %d: y: %w", lineNo, err)
			}
			out[fields[1]] = layout.Point{
				X: roundPx(x * scale * pointsPerInch),
				Y: roundPx((height - y) * scale * pointsPerInch),
			}
		case "stop":
			return out, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// roundPx drops the noise of plain's four-decimal inches by rounding to
// a tenth of a pixel. Negative zero becomes zero.
func roundPx(v float64) float64 {
	return math.Round(v*10)/10 + 0
}

// splitPlain splits a plain-format line into fields. Double-quoted fields
// are unquoted; a backslash escapes the next character inside quotes.
func splitPlain(line string) []string {
	var (
		fields []string
		cur    strings.Builder
		inQ    bool
		quoted bool
	)
	flush := func() {
		if cur.Len() > 0 || quoted {
			fields = append(fields, cur.String())
		}
		cur.Reset()
		quoted = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQ && c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == '"':
			inQ = !inQ
			quoted = true
		case !inQ && (c == ' ' || c == '\t'):
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return fields
}
