package instance

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseTSPLIB reads a TSPLIB-format instance (spec.md §6): NAME, TYPE: TSP,
// DIMENSION, EDGE_WEIGHT_TYPE ∈ {EUC_2D, CEIL_2D, ATT, GEO, EXPLICIT}, and
// either a NODE_COORD_SECTION or an EDGE_WEIGHT_SECTION (full matrix,
// EDGE_WEIGHT_FORMAT FULL_MATRIX assumed for EXPLICIT instances).
//
// Errors: ErrMalformedFile for any structural problem, ErrUnsupportedType
// for an EDGE_WEIGHT_TYPE other than the five supported kinds.
func ParseTSPLIB(r io.Reader) (*Instance, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var (
		name      string
		dimension int
		wt        EdgeWeightType
		wtSet     bool
		section   string
	)

	var coordLines []string
	var weightTokens []string

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line == "EOF" {
			continue
		}
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "NAME"):
			name = fieldValue(line)
		case strings.HasPrefix(upper, "TYPE"):
			v := strings.ToUpper(fieldValue(line))
			if v != "TSP" {
				return nil, fmt.Errorf("%w: unsupported TYPE %q", ErrMalformedFile, v)
			}
		case strings.HasPrefix(upper, "DIMENSION"):
			n, err := strconv.Atoi(strings.TrimSpace(fieldValue(line)))
			if err != nil {
				return nil, fmt.Errorf("%w: bad DIMENSION", ErrMalformedFile)
			}
			dimension = n
		case strings.HasPrefix(upper, "EDGE_WEIGHT_TYPE"):
			v := strings.ToUpper(strings.TrimSpace(fieldValue(line)))
			switch v {
			case "EUC_2D":
				wt = EUC2D
			case "CEIL_2D":
				wt = CEIL2D
			case "ATT":
				wt = ATT
			case "GEO":
				wt = GEO
			case "EXPLICIT":
				wt = Explicit
			default:
				return nil, ErrUnsupportedType
			}
			wtSet = true
		case strings.HasPrefix(upper, "NODE_COORD_SECTION"):
			section = "coord"
		case strings.HasPrefix(upper, "EDGE_WEIGHT_SECTION"):
			section = "weight"
		case strings.HasPrefix(upper, "DISPLAY_DATA_SECTION"),
			strings.HasPrefix(upper, "EDGE_WEIGHT_FORMAT"),
			strings.HasPrefix(upper, "COMMENT"):
			if !strings.HasPrefix(upper, "COMMENT") {
				section = ""
			}
		default:
			switch section {
			case "coord":
				coordLines = append(coordLines, line)
			case "weight":
				weightTokens = append(weightTokens, strings.Fields(line)...)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if dimension <= 0 || !wtSet {
		return nil, fmt.Errorf("%w: missing DIMENSION or EDGE_WEIGHT_TYPE", ErrMalformedFile)
	}

	if wt == Explicit {
		return parseExplicit(name, dimension, weightTokens)
	}
	return parseCoords(name, dimension, coordLines, wt)
}

func fieldValue(line string) string {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}

func parseCoords(name string, n int, lines []string, wt EdgeWeightType) (*Instance, error) {
	if len(lines) < n {
		return nil, fmt.Errorf("%w: NODE_COORD_SECTION has fewer than DIMENSION lines", ErrMalformedFile)
	}
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		fields := strings.Fields(lines[i])
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: malformed coordinate line", ErrMalformedFile)
		}
		x, err1 := strconv.ParseFloat(fields[1], 64)
		y, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: non-numeric coordinate", ErrMalformedFile)
		}
		pts[i] = Point{X: x, Y: y}
	}
	return NewFromCoords(name, pts, wt)
}

func parseExplicit(name string, n int, tokens []string) (*Instance, error) {
	if len(tokens) < n*n {
		return nil, fmt.Errorf("%w: EDGE_WEIGHT_SECTION has fewer than DIMENSION^2 entries", ErrMalformedFile)
	}
	raw := make([][]float64, n)
	k := 0
	for i := 0; i < n; i++ {
		raw[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			v, err := strconv.ParseFloat(tokens[k], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: non-numeric edge weight", ErrMalformedFile)
			}
			raw[i][j] = v
			k++
		}
	}
	return NewFromDistances(name, raw)
}

// WriteTSPLIB writes in back out in EXPLICIT FULL_MATRIX form — sufficient
// for round-tripping any Instance regardless of how it was built.
func WriteTSPLIB(w io.Writer, in *Instance) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "NAME: %s\n", in.Name)
	fmt.Fprintf(bw, "TYPE: TSP\n")
	fmt.Fprintf(bw, "DIMENSION: %d\n", in.N)
	fmt.Fprintf(bw, "EDGE_WEIGHT_TYPE: EXPLICIT\n")
	fmt.Fprintf(bw, "EDGE_WEIGHT_FORMAT: FULL_MATRIX\n")
	fmt.Fprintf(bw, "EDGE_WEIGHT_SECTION\n")
	for i := 0; i < in.N; i++ {
		for j := 0; j < in.N; j++ {
			if j > 0 {
				fmt.Fprint(bw, " ")
			}
			fmt.Fprintf(bw, "%d", int64(in.At(i, j)))
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintln(bw, "EOF")
	return bw.Flush()
}
