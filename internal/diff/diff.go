package diff

import (
	"strings"

	"github.com/terminally-online/paramsync/internal/schema"
)

type ChangeType int

const (
	SetParameter ChangeType = iota
	AlterParameter
	ResetParameter
)

func (t ChangeType) String() string {
	switch t {
	case SetParameter:
		return "set"
	case AlterParameter:
		return "alter"
	case ResetParameter:
		return "reset"
	}
	return "unknown"
}

type Change interface {
	SQL() string
	DownSQL() string
	Type() ChangeType
	ObjectName() string
	IsReversible() bool
}

// Compare returns the changes that turn current into desired. Parameters
// that are not synchronized on either side are left alone.
func Compare(current, desired *schema.Schema) []Change {
	var changes []Change

	changes = append(changes, compareParameters(current.Parameters, desired.Parameters)...)

	return changes
}

func quoteIdent(s string) string {
	if s == "" {
		return s
	}
	needsQuoting := false
	for i, r := range s {
		if i == 0 {
			if (r < 'a' || r > 'z') && r != '_' {
				needsQuoting = true
				break
			}
		} else {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
				needsQuoting = true
				break
			}
		}
	}
	if reserved[strings.ToLower(s)] {
		needsQuoting = true
	}
	if needsQuoting {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

var reserved = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
	"array": true, "as": true, "asc": true, "asymmetric": true, "both": true,
	"case": true, "cast": true, "check": true, "collate": true, "column": true,
	"constraint": true, "create": true, "current_catalog": true, "current_date": true,
	"current_role": true, "current_time": true, "current_timestamp": true,
	"current_user": true, "default": true, "deferrable": true, "desc": true,
	"distinct": true, "do": true, "else": true, "end": true, "except": true,
	"false": true, "fetch": true, "for": true, "foreign": true, "from": true,
	"grant": true, "group": true, "having": true, "in": true, "initially": true,
	"intersect": true, "into": true, "lateral": true, "leading": true, "limit": true,
	"localtime": true, "localtimestamp": true, "not": true, "null": true, "offset": true,
	"on": true, "only": true, "or": true, "order": true, "placing": true, "primary": true,
	"references": true, "returning": true, "select": true, "session_user": true,
	"some": true, "symmetric": true, "table": true, "then": true, "to": true,
	"trailing": true, "true": true, "union": true, "unique": true, "user": true,
	"using": true, "variadic": true, "when": true, "where": true, "window": true, "with": true,
}

func quoteLiteral(s string) string {
	escaped := strings.ReplaceAll(s, "'", "''")
	return "'" + escaped + "'"
}
