// Package query compiles a small SQL-flavored string into a
// histogram.ReduceToWhere call: a SELECT ... GROUP BY names the surviving
// axes, an optional WHERE ... BETWEEN restricts the remaining axes to a
// coordinate window before they are summed away. It is a thin translation
// layer, not a general SQL engine: no joins, no subqueries, no persistence
// of its own.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/tikkisean/nhist/histogram"
)

// Spec is a compiled query: the axis indices to keep, in the order named by
// GROUP BY, and an optional per-axis internal-index window from WHERE.
type Spec struct {
	GroupBy []int
	Where   map[int][2]int
}

// Compile parses sql -- a string shaped like
// "SELECT SUM(value) FROM h GROUP BY axis0, axis2 WHERE axis1 BETWEEN 1 AND 4"
// -- into a Spec. axisNames names each histogram axis, in dimension order,
// so GROUP BY/WHERE clauses can refer to axes by name rather than index.
func Compile(sql string, axisNames []string) (*Spec, error) {
	// sqlparser only accepts the standard clause order (WHERE before GROUP
	// BY), so a WHERE clause written after GROUP BY is moved ahead of it.
	text := sql
	if upper := strings.ToUpper(text); len(upper) == len(text) {
		g, w := strings.Index(upper, " GROUP BY "), strings.Index(upper, " WHERE ")
		if g >= 0 && w > g {
			text = text[:g] + text[w:] + text[g:w]
		}
	}
	stmt, err := sqlparser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("query: parsing %q: %w", sql, err)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, fmt.Errorf("query: only SELECT statements are supported")
	}

	nameIndex := make(map[string]int, len(axisNames))
	for i, n := range axisNames {
		nameIndex[strings.ToLower(n)] = i
	}
	resolve := func(name string) (int, error) {
		idx, ok := nameIndex[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("query: unknown axis %q", name)
		}
		return idx, nil
	}

	spec := &Spec{Where: map[int][2]int{}}
	for _, expr := range sel.GroupBy {
		col, ok := expr.(*sqlparser.ColName)
		if !ok {
			return nil, fmt.Errorf("query: GROUP BY only supports plain column references")
		}
		idx, err := resolve(col.Name.String())
		if err != nil {
			return nil, err
		}
		spec.GroupBy = append(spec.GroupBy, idx)
	}
	if len(spec.GroupBy) == 0 {
		return nil, fmt.Errorf("query: GROUP BY must name at least one axis")
	}

	if sel.Where != nil {
		if err := compileWhere(sel.Where.Expr, resolve, spec.Where); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

// compileWhere accepts a conjunction of BETWEEN predicates -- the only
// WHERE shape this thin surface understands.
func compileWhere(expr sqlparser.Expr, resolve func(string) (int, error), where map[int][2]int) error {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		if err := compileWhere(e.Left, resolve, where); err != nil {
			return err
		}
		return compileWhere(e.Right, resolve, where)
	case *sqlparser.RangeCond:
		if !strings.EqualFold(e.Operator, "between") {
			return fmt.Errorf("query: only BETWEEN range predicates are supported in WHERE")
		}
		col, ok := e.Left.(*sqlparser.ColName)
		if !ok {
			return fmt.Errorf("query: WHERE predicates must compare a plain column")
		}
		idx, err := resolve(col.Name.String())
		if err != nil {
			return err
		}
		lo, err := intLiteral(e.From)
		if err != nil {
			return err
		}
		hi, err := intLiteral(e.To)
		if err != nil {
			return err
		}
		where[idx] = [2]int{lo, hi}
		return nil
	default:
		return fmt.Errorf("query: unsupported WHERE predicate; only BETWEEN and AND are supported")
	}
}

func intLiteral(expr sqlparser.Expr) (int, error) {
	val, ok := expr.(*sqlparser.SQLVal)
	if !ok || val.Type != sqlparser.IntVal {
		return 0, fmt.Errorf("query: expected an integer literal")
	}
	return strconv.Atoi(string(val.Val))
}

// Run executes a compiled Spec against h, returning the reduced histogram.
func Run(h *histogram.Histogram, spec *Spec) (*histogram.Histogram, error) {
	return h.ReduceToWhere(spec.Where, spec.GroupBy...)
}
