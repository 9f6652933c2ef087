// Command histcli is an interactive shell for building, filling and
// inspecting a histogram, in the spirit of the teaching database this
// engine's storage and query idioms are drawn from: a readline loop over a
// small set of verbs, rather than a full scripting language.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tikkisean/nhist/axis"
	"github.com/tikkisean/nhist/histogram"
	"github.com/tikkisean/nhist/query"
)

type shell struct {
	axes      []axis.Axis
	axisNames []string
	hist      *histogram.Histogram
}

func main() {
	rl, err := readline.New("nhist> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "histcli:", err)
		os.Exit(1)
	}
	defer rl.Close()

	sh := &shell{}
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "histcli:", err)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := sh.dispatch(line); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

func (s *shell) dispatch(line string) error {
	fields := strings.Fields(line)
	cmd, rest := fields[0], fields[1:]
	switch strings.ToLower(cmd) {
	case "exit", "quit":
		os.Exit(0)
	case "axis":
		return s.cmdAxis(rest)
	case "build":
		return s.cmdBuild()
	case "fill":
		return s.cmdFill(rest)
	case "at":
		return s.cmdAt(rest)
	case "query":
		return s.cmdQuery(strings.TrimSpace(strings.TrimPrefix(line, cmd)))
	case "reduce":
		return s.cmdReduce(rest)
	case "save":
		return s.cmdSave(rest)
	case "load":
		return s.cmdLoad(rest)
	case "dropped":
		if s.hist == nil {
			return fmt.Errorf("no histogram built yet")
		}
		fmt.Println(s.hist.DroppedFills())
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// cmdAxis defines one axis before the histogram is built:
//
//	axis regular <name> <n> <lo> <hi>
//	axis integer <name> <lo> <hi>
//	axis categorical <name> <label> [label...]
func (s *shell) cmdAxis(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: axis <regular|integer|categorical> <name> ...")
	}
	kind, name, rest := args[0], args[1], args[2:]
	var a axis.Axis
	var err error
	switch strings.ToLower(kind) {
	case "regular":
		if len(rest) != 3 {
			return fmt.Errorf("usage: axis regular <name> <n> <lo> <hi>")
		}
		n, err1 := strconv.Atoi(rest[0])
		lo, err2 := strconv.ParseFloat(rest[1], 64)
		hi, err3 := strconv.ParseFloat(rest[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return fmt.Errorf("axis regular: invalid numeric argument")
		}
		a, err = axis.NewRegular(n, lo, hi, axis.Underflow|axis.Overflow)
	case "integer":
		if len(rest) != 2 {
			return fmt.Errorf("usage: axis integer <name> <lo> <hi>")
		}
		lo, err1 := strconv.ParseInt(rest[0], 10, 64)
		hi, err2 := strconv.ParseInt(rest[1], 10, 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("axis integer: invalid numeric argument")
		}
		a, err = axis.NewInteger(lo, hi, axis.Underflow|axis.Overflow)
	case "categorical":
		if len(rest) == 0 {
			return fmt.Errorf("usage: axis categorical <name> <label> [label...]")
		}
		a, err = axis.NewCategorical(rest, axis.Overflow)
	default:
		return fmt.Errorf("unknown axis kind %q", kind)
	}
	if err != nil {
		return err
	}
	s.axes = append(s.axes, a)
	s.axisNames = append(s.axisNames, name)
	fmt.Printf("defined axis %q (%d total)\n", name, len(s.axes))
	return nil
}

func (s *shell) cmdBuild() error {
	if len(s.axes) == 0 {
		return fmt.Errorf("no axes defined")
	}
	h, err := histogram.New(axis.NewStatic(s.axes...))
	if err != nil {
		return err
	}
	s.hist = h
	fmt.Printf("built histogram: rank %d, size %d\n", h.Rank(), h.Size())
	return nil
}

func (s *shell) coords(args []string) ([]interface{}, error) {
	if len(args) != len(s.axes) {
		return nil, fmt.Errorf("expected %d coordinates, got %d", len(s.axes), len(args))
	}
	coords := make([]interface{}, len(args))
	for i, a := range args {
		switch s.axes[i].Kind() {
		case axis.KindCategorical:
			coords[i] = a
		case axis.KindRegular, axis.KindGrowableRegular:
			f, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return nil, fmt.Errorf("coordinate %d: %w", i, err)
			}
			coords[i] = f
		default:
			v, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("coordinate %d: %w", i, err)
			}
			coords[i] = v
		}
	}
	return coords, nil
}

func (s *shell) cmdFill(args []string) error {
	if s.hist == nil {
		return fmt.Errorf("no histogram built yet")
	}
	weight := 1.0
	if len(args) > 0 && strings.HasPrefix(args[0], "w=") {
		w, err := strconv.ParseFloat(strings.TrimPrefix(args[0], "w="), 64)
		if err != nil {
			return fmt.Errorf("invalid weight: %w", err)
		}
		weight = w
		args = args[1:]
	}
	coords, err := s.coords(args)
	if err != nil {
		return err
	}
	if weight == 1.0 {
		return s.hist.Fill(coords...)
	}
	return s.hist.FillWeight(weight, coords...)
}

func (s *shell) cmdAt(args []string) error {
	if s.hist == nil {
		return fmt.Errorf("no histogram built yet")
	}
	indices := make([]int, len(args))
	for i, a := range args {
		idx, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
		indices[i] = idx
	}
	v, variance, err := s.hist.At(indices...)
	if err != nil {
		return err
	}
	fmt.Printf("value=%v variance=%v\n", v, variance)
	return nil
}

func (s *shell) cmdReduce(args []string) error {
	if s.hist == nil {
		return fmt.Errorf("no histogram built yet")
	}
	indices := make([]int, len(args))
	for i, a := range args {
		idx, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("axis index %d: %w", i, err)
		}
		indices[i] = idx
	}
	reduced, err := s.hist.ReduceTo(indices...)
	if err != nil {
		return err
	}
	reduced.All(func(coord []int, v, variance float64) {
		fmt.Printf("%v -> value=%v variance=%v\n", coord, v, variance)
	})
	return nil
}

func (s *shell) cmdQuery(sql string) error {
	if s.hist == nil {
		return fmt.Errorf("no histogram built yet")
	}
	spec, err := query.Compile(sql, s.axisNames)
	if err != nil {
		return err
	}
	result, err := query.Run(s.hist, spec)
	if err != nil {
		return err
	}
	result.All(func(coord []int, v, variance float64) {
		fmt.Printf("%v -> value=%v variance=%v\n", coord, v, variance)
	})
	return nil
}

func (s *shell) cmdSave(args []string) error {
	if s.hist == nil {
		return fmt.Errorf("no histogram built yet")
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: save <file>")
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	return s.hist.EncodeTo(f)
}

func (s *shell) cmdLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <file>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	h, err := histogram.Decode(f)
	if err != nil {
		return err
	}
	s.hist = h
	s.axes = nil
	s.axisNames = nil
	for k := 0; k < h.Rank(); k++ {
		s.axes = append(s.axes, h.Axis(k))
		s.axisNames = append(s.axisNames, fmt.Sprintf("axis%d", k))
	}
	fmt.Printf("loaded histogram: rank %d, size %d\n", h.Rank(), h.Size())
	return nil
}
