package layered

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// plain is a parsed Graphviz "plain" dump:
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 ... xn yn [label xl yl] style color
//	stop
//
// Units are inches with the origin at the bottom-left corner.
type plain struct {
	scale, width, height float64
	nodes                []plainNode
	edges                []plainEdge
}

type plainNode struct {
	name string
	x, y float64
}

type plainEdge struct {
	tail, head string
	points     [][2]float64
}

func parsePlain(data []byte) (*plain, error) {
	p := &plain{}
	sawGraph := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields, err := tokenize(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: short graph statement", line)
			}
			if p.scale, p.width, p.height, err = float3(fields[1], fields[2], fields[3]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			sawGraph = true
		case "node":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: short node statement", line)
			}
			x, errX := strconv.ParseFloat(fields[2], 64)
			y, errY := strconv.ParseFloat(fields[3], 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("line %d: bad node position", line)
			}
			p.nodes = append(p.nodes, plainNode{name: fields[1], x: x, y: y})
		case "edge":
			e, err := parseEdge(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			p.edges = append(p.edges, e)
		case "stop":
			if !sawGraph {
				return nil, fmt.Errorf("missing graph statement")
			}
			return p, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawGraph {
		return nil, fmt.Errorf("missing graph statement")
	}
	return p, nil
}

func parseEdge(fields []string) (plainEdge, error) {
	if len(fields) < 4 {
		return plainEdge{}, fmt.Errorf("short edge statement")
	}
	n, err := strconv.Atoi(fields[3])
	if err != nil || n < 0 {
		return plainEdge{}, fmt.Errorf("bad edge point count %q", fields[3])
	}
	if len(fields) < 4+2*n {
		return plainEdge{}, fmt.Errorf("edge has %d of %d points", (len(fields)-4)/2, n)
	}
	e := plainEdge{tail: fields[1], head: fields[2], points: make([][2]float64, n)}
	for i := 0; i < n; i++ {
		x, errX := strconv.ParseFloat(fields[4+2*i], 64)
		y, errY := strconv.ParseFloat(fields[5+2*i], 64)
		if errX != nil || errY != nil {
			return plainEdge{}, fmt.Errorf("bad edge point %d", i)
		}
		e.points[i] = [2]float64{x, y}
	}
	return e, nil
}

func float3(a, b, c string) (x, y, z float64, err error) {
	if x, err = strconv.ParseFloat(a, 64); err != nil {
		return
	}
	if y, err = strconv.ParseFloat(b, 64); err != nil {
		return
	}
	z, err = strconv.ParseFloat(c, 64)
	return
}

// tokenize splits a plain line on whitespace, keeping double-quoted
// strings (with backslash escapes) as single tokens without the quotes.
func tokenize(s string) ([]string, error) {
	var out []string
	var cur strings.Builder
	inQuote, escaped, have := false, false, false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			have = true
		case !inQuote && (r == ' ' || r == '\t' || r == '\r'):
			if have {
				out = append(out, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if have {
		out = append(out, cur.String())
	}
	return out, nil
}

// syntheticIndex parses the n<i> node names written by ToDOT.
func syntheticIndex(name string) (int, bool) {
	if len(name) < 2 || name[0] != 'n' {
		return 0, false
	}
	i, err := strconv.Atoi(name[1:])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
