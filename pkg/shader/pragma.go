package shader

import (
	"strconv"
	"strings"
)

// Pragmas is the per-pass configuration a body can request through line
// directives, as a textual alternative to structured per-stage fields:
//
//	#pragma persistent
//	#pragma clear(0.0, 0.0, 0.0, 1.0)
//	#pragma loop(8)
type Pragmas struct {
	// Persistent keeps the pass's feedback buffer across frames.
	Persistent bool

	// Clear is the initial clear color for the buffer; HasClear reports
	// whether a clear pragma was present.
	Clear    [4]float64
	HasClear bool

	// Loop is the requested repeat count; 0 means no loop pragma.
	Loop int
}

// ScanPragmas scans src line by line for the three recognized pragmas.
// Malformed pragma arguments are ignored.
func ScanPragmas(src string) Pragmas {
	var p Pragmas
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "#pragma")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		switch {
		case rest == "persistent":
			p.Persistent = true
		case strings.HasPrefix(rest, "clear"):
			if args, ok := pragmaArgs(rest, "clear"); ok && len(args) > 0 && len(args) <= 4 {
				// Missing components stay zero except alpha, which
				// defaults to opaque.
				copy(p.Clear[:], args)
				if len(args) < 4 {
					p.Clear[3] = 1
				}
				p.HasClear = true
			}
		case strings.HasPrefix(rest, "loop"):
			if args, ok := pragmaArgs(rest, "loop"); ok && len(args) == 1 && args[0] >= 1 {
				p.Loop = int(args[0])
			}
		}
	}
	return p
}

// pragmaArgs parses "name(a, b, ...)" into its numeric arguments.
func pragmaArgs(s, name string) ([]float64, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(s, name))
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return nil, false
	}
	var args []float64
	for _, part := range strings.Split(rest[1:len(rest)-1], ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, false
		}
		args = append(args, f)
	}
	return args, true
}
