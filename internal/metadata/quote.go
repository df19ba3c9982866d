package metadata

import (
	"regexp"
	"strings"
)

// Quoter decides when identifiers must be quoted for the engine.
type Quoter struct {
	quote    string
	invalid  *regexp.Regexp
	keywords map[string]struct{}
}

// NewQuoter builds a Quoter from the engine's reported identifier rules.
func NewQuoter(m DbmsMeta) *Quoter {
	valid := "a-zA-Z0-9_"
	for _, ch := range m.ExtraNameChars {
		if strings.ContainsRune(`-&^\]`, ch) {
			valid += `\`
		}
		valid += string(ch)
	}
	q := &Quoter{
		quote:    strings.TrimSpace(m.IdentifierQuote),
		invalid:  regexp.MustCompile("[^" + valid + "]"),
		keywords: map[string]struct{}{},
	}
	for _, set := range [][]string{sql92Keywords, m.Keywords, m.Functions} {
		for _, k := range set {
			q.keywords[strings.ToUpper(strings.TrimSpace(k))] = struct{}{}
		}
	}
	return q
}

// IsKeyword reports whether name collides with a reserved word.
func (q *Quoter) IsKeyword(name string) bool {
	_, ok := q.keywords[strings.ToUpper(name)]
	return ok
}

// NeedsQuoting reports whether name cannot be used unquoted.
func (q *Quoter) NeedsQuoting(name string) bool {
	return q.invalid.MatchString(name) || q.IsKeyword(name)
}

// Quote returns name, quoted only when needed.
func (q *Quoter) Quote(name string) string {
	if q.NeedsQuoting(name) {
		return q.ForceQuote(name)
	}
	return name
}

// ForceQuote always quotes name.
func (q *Quoter) ForceQuote(name string) string {
	return q.quote + name + q.quote
}

// QualifiedTable builds "schema.table" (or "catalog.table" without a schema).
func (q *Quoter) QualifiedTable(catalog, schema, table string, force bool) string {
	quote := q.Quote
	if force {
		quote = q.ForceQuote
	}
	var b strings.Builder
	switch {
	case schema != "":
		b.WriteString(quote(schema))
		b.WriteByte('.')
	case catalog != "":
		b.WriteString(quote(catalog))
		b.WriteByte('.')
	}
	b.WriteString(quote(table))
	return b.String()
}
