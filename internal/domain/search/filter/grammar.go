package filter

import (
	"regexp"
	"strings"
)

// Grammar holds the lexical rules of one backend filter language.
// The builder and renderer are grammar-independent; only tokens vary.
type Grammar struct {
	Name       string
	Clause     func(attr, value string) string
	Or         string
	And        string
	GroupOpen  string
	GroupClose string
}

var numberRegex = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

var doubleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Canonical is the backend-neutral grammar: attr:"value", AND, OR, ( ).
// Parse reads exactly what Render(_, Canonical) writes.
var Canonical = Grammar{
	Name: "canonical",
	Clause: func(attr, value string) string {
		return attr + `:"` + doubleQuoteEscaper.Replace(value) + `"`
	},
	Or:         " OR ",
	And:        " AND ",
	GroupOpen:  "(",
	GroupClose: ")",
}

// Meilisearch renders attr = "value" clauses.
var Meilisearch = Grammar{
	Name: "meilisearch",
	Clause: func(attr, value string) string {
		return attr + ` = "` + doubleQuoteEscaper.Replace(value) + `"`
	},
	Or:         " OR ",
	And:        " AND ",
	GroupOpen:  "(",
	GroupClose: ")",
}

// Typesense renders attr:=`value` clauses; numbers stay bare. Backticks
// cannot be escaped in filter_by and are dropped from values.
var Typesense = Grammar{
	Name: "typesense",
	Clause: func(attr, value string) string {
		if numberRegex.MatchString(value) {
			return attr + ":=" + value
		}
		return attr + ":=`" + strings.ReplaceAll(value, "`", "") + "`"
	},
	Or:         " || ",
	And:        " && ",
	GroupOpen:  "(",
	GroupClose: ")",
}

// RediSearch renders TAG clauses @attr:{value}. Intersection is a space.
var RediSearch = Grammar{
	Name: "redisearch",
	Clause: func(attr, value string) string {
		return "@" + attr + ":{" + TagEscaper.Replace(value) + "}"
	},
	Or:         " | ",
	And:        " ",
	GroupOpen:  "(",
	GroupClose: ")",
}

// TagEscaper escapes RediSearch TAG punctuation.
var TagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)
