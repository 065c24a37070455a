package store

import (
	"fmt"
	"strings"
)

// Criterion is a single equality constraint on a column.
type Criterion struct {
	Key   string
	Value any
}

// Predicate is a parameterized SQL boolean expression. An empty SQL string
// matches every row.
type Predicate struct {
	SQL  string
	Args []any
}

// BuildPredicate turns criteria into an AND of equality constraints. Keys are
// translated through aliases; a key without an alias is used as the column
// name unchanged. Values are always bound as parameters.
func BuildPredicate(criteria []Criterion, aliases map[string]string) Predicate {
	if len(criteria) == 0 {
		return Predicate{}
	}

	parts := make([]string, 0, len(criteria))
	args := make([]any, 0, len(criteria))
	for _, c := range criteria {
		column := c.Key
		if alias, ok := aliases[c.Key]; ok {
			column = alias
		}
		parts = append(parts, fmt.Sprintf("%s = ?", column))
		args = append(args, c.Value)
	}

	return Predicate{SQL: strings.Join(parts, " AND "), Args: args}
}

// And combines two predicates. Either side may be empty.
func (p Predicate) And(other Predicate) Predicate {
	switch {
	case p.SQL == "":
		return other
	case other.SQL == "":
		return p
	}

	args := make([]any, 0, len(p.Args)+len(other.Args))
	args = append(args, p.Args...)
	args = append(args, other.Args...)
	return Predicate{
		SQL:  "(" + p.SQL + ") AND (" + other.SQL + ")",
		Args: args,
	}
}

// Where renders the predicate as a WHERE clause, or "" when empty.
func (p Predicate) Where() string {
	if p.SQL == "" {
		return ""
	}
	return " WHERE " + p.SQL
}

// itemAliases maps API criteria keys onto todo_items columns.
var itemAliases = map[string]string{
	"listId":   "i.list_id",
	"finished": "i.finished",
}

// ItemQuery holds the supported item index and bulk-delete criteria. Nil
// fields are not constrained.
type ItemQuery struct {
	ListID   *int64
	Finished *bool
}

// Empty reports whether no criteria are set.
func (q ItemQuery) Empty() bool {
	return q.ListID == nil && q.Finished == nil
}

// Criteria converts the query to criteria keyed by API field name.
func (q ItemQuery) Criteria() []Criterion {
	var criteria []Criterion
	if q.ListID != nil {
		criteria = append(criteria, Criterion{Key: "listId", Value: *q.ListID})
	}
	if q.Finished != nil {
		criteria = append(criteria, Criterion{Key: "finished", Value: boolToInt(*q.Finished)})
	}
	return criteria
}

// listVisible restricts todo_lists aliased as l to those the user may read.
func listVisible(userID int64) Predicate {
	return Predicate{SQL: "l.create_user_id = ? OR l.shared = 1", Args: []any{userID}}
}

// itemVisible restricts todo_items aliased as i to those the user may read.
// Item create_user_id always carries the owning list's creator.
func itemVisible(userID int64) Predicate {
	return Predicate{
		SQL:  "i.create_user_id = ? OR i.list_id IN (SELECT id FROM todo_lists WHERE shared = 1)",
		Args: []any{userID},
	}
}
