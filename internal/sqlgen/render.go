package sqlgen

import (
	"strings"

	"github.com/wyndhblb/caravel/internal/dialect"
)

// RenderOptions carries dialect-specific text fixes applied while emitting
// SQL. Options are passed per rendering call; rendering keeps no ambient
// state, so concurrent compilations stay independent.
type RenderOptions struct {
	// EscapeLiteralPercents doubles percent signs in literal metadata SQL
	// fragments, mirroring what a parameter-style statement compiler does
	// to protect them from placeholder interpolation.
	EscapeLiteralPercents bool
}

// optionsFor derives rendering options from the dialect. Only drivers with
// a percent-based parameter style need literal escaping.
func optionsFor(d dialect.Dialect) RenderOptions {
	return RenderOptions{EscapeLiteralPercents: d.Name() == "mysql"}
}

// renderExpr emits the fragment text with percent handling applied. The
// un-escape hook is deliberately narrow: it exempts only clauses that are
// literal, time-typed, and non-parameterized, leaving every other literal
// fragment escaped exactly as the parameter-style compiler produced it.
func renderExpr(e LabeledExpr, opts RenderOptions) string {
	if !opts.EscapeLiteralPercents || !e.Literal || e.LiteralDateTime {
		return e.Expr
	}
	return strings.ReplaceAll(e.Expr, "%", "%%")
}

// majorKeywords start a new line during reindentation. Compound join forms
// come before plain JOIN so they break as one unit.
var majorKeywords = []string{
	"SELECT", "FROM", "WHERE", "GROUP BY", "HAVING", "ORDER BY", "LIMIT",
	"LEFT JOIN", "RIGHT JOIN", "INNER JOIN", "FULL JOIN", "CROSS JOIN", "JOIN",
}

// Reindent pretty-prints a single-line SQL statement for logging and
// diagnostics: each major clause keyword starts a new line. The transform
// never touches quoted strings.
func Reindent(sql string) string {
	var b strings.Builder
	inString := false
	i := 0
	for i < len(sql) {
		if sql[i] == '\'' {
			inString = !inString
			b.WriteByte(sql[i])
			i++
			continue
		}
		if !inString && sql[i] == ' ' {
			if n := keywordLenAt(sql, i+1); n > 0 {
				b.WriteByte('\n')
				b.WriteString(sql[i+1 : i+1+n])
				i += 1 + n
				continue
			}
		}
		b.WriteByte(sql[i])
		i++
	}
	return b.String()
}

// keywordLenAt reports the length of the major keyword starting at
// position i, or 0 when none starts there.
func keywordLenAt(sql string, i int) int {
	rest := sql[i:]
	for _, kw := range majorKeywords {
		if len(rest) < len(kw) {
			continue
		}
		if !strings.EqualFold(rest[:len(kw)], kw) {
			continue
		}
		// Must be a whole word.
		if len(rest) > len(kw) {
			next := rest[len(kw)]
			if next != ' ' && next != '(' && next != '\n' {
				continue
			}
		}
		// A JOIN preceded by its modifier is handled by the compound form.
		if kw == "JOIN" && joinModifierBefore(sql, i) {
			continue
		}
		return len(kw)
	}
	return 0
}

// joinModifierBefore reports whether the word ending just before position i
// is a join modifier (LEFT, RIGHT, INNER, FULL, CROSS, OUTER).
func joinModifierBefore(sql string, i int) bool {
	end := i - 1 // index of the space before the keyword
	if end < 0 {
		return false
	}
	start := end
	for start > 0 && sql[start-1] != ' ' && sql[start-1] != '(' {
		start--
	}
	word := strings.ToUpper(sql[start:end])
	switch word {
	case "LEFT", "RIGHT", "INNER", "FULL", "CROSS", "OUTER":
		return true
	}
	return false
}
