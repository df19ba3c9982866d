package metadata

import (
	"fmt"
	"strings"
)

// InvalidConfigError reports a named parameter that cannot be bound.
type InvalidConfigError struct {
	Param string
	SQL   string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("unexpected named parameter '%s' found in SQL '%s'", e.Param, e.SQL)
}

// Params are the values available to named parameters. Empty strings are absent.
type Params struct {
	DBName  string
	Catalog string
	Schema  string
	Table   string
}

func (p Params) lookup(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "dbname":
		return p.DBName, true
	case "schema", "owner":
		if p.Schema != "" {
			return p.Schema, true
		}
		return p.DBName, true
	case "table", "view":
		return p.Table, p.Table != ""
	case "catalog":
		return p.Catalog, p.Catalog != ""
	}
	return "", false
}

// Prepare replaces :dbname, :schema/:owner, :table/:view and :catalog with
// positional placeholders and returns the bind values in order of appearance.
// Postgres style "::" casts and ":<digit>" markers are left alone.
func Prepare(sql string, p Params, placeholder func(int) string) (string, []any, error) {
	var (
		out  strings.Builder
		args []any
	)
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if ch != ':' {
			out.WriteByte(ch)
			continue
		}
		if i+1 < len(sql) && sql[i+1] == ':' {
			out.WriteString("::")
			i++
			continue
		}
		j := i + 1
		for j < len(sql) && isIdentByte(sql[j], j == i+1) {
			j++
		}
		if j == i+1 {
			out.WriteByte(ch)
			continue
		}
		name := sql[i+1 : j]
		val, ok := p.lookup(name)
		if !ok {
			return "", nil, &InvalidConfigError{Param: name, SQL: sql}
		}
		args = append(args, val)
		out.WriteString(placeholder(len(args)))
		i = j - 1
	}
	return out.String(), args, nil
}

func isIdentByte(b byte, first bool) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b == '_':
		return true
	case b >= '0' && b <= '9':
		return !first
	}
	return false
}

// QuestionMark is the "?" placeholder style.
func QuestionMark(int) string { return "?" }

// Dollar is the "$n" placeholder style.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// AtP is the "@pN" placeholder style.
func AtP(n int) string { return fmt.Sprintf("@p%d", n) }

// ColonN is the ":n" placeholder style.
func ColonN(n int) string { return fmt.Sprintf(":%d", n) }
