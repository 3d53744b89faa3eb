package sqlite

import "strings"

// autoIncrementColumn scans the stored CREATE TABLE text for a column
// definition carrying AUTOINCREMENT and returns that column's identifier.
// SQLite exposes no catalog flag for it. An empty string means none.
func autoIncrementColumn(ddl string) string {
	open := strings.IndexByte(ddl, '(')
	end := strings.LastIndexByte(ddl, ')')
	if open < 0 || end <= open {
		return ""
	}
	for _, def := range splitDefinitions(ddl[open+1 : end]) {
		if !strings.Contains(strings.ToUpper(def), "AUTOINCREMENT") {
			continue
		}
		fields := strings.Fields(def)
		if len(fields) == 0 {
			continue
		}
		return unquote(fields[0])
	}
	return ""
}

// splitDefinitions splits a table body on commas outside parentheses and
// quoted identifiers.
func splitDefinitions(body string) []string {
	var (
		defs  []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '`' || ch == '\'':
			quote = ch
		case ch == '[':
			quote = ']'
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == ',' && depth == 0:
			defs = append(defs, strings.TrimSpace(body[start:i]))
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(body[start:]); rest != "" {
		defs = append(defs, rest)
	}
	return defs
}

func unquote(ident string) string {
	if len(ident) >= 2 {
		first, last := ident[0], ident[len(ident)-1]
		if (first == '"' && last == '"') || (first == '`' && last == '`') || (first == '[' && last == ']') {
			return ident[1 : len(ident)-1]
		}
	}
	return strings.Trim(ident, `"`)
}
