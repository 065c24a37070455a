package api

import (
	"strconv"
	"strings"
)

// Identifier addresses a row, or a collection when IsZero reports true.
// The set of implementations is closed: PlainID and ListItemID.
type Identifier interface {
	IsZero() bool
	identifier()
}

// PlainID addresses a row by its own id.
type PlainID struct {
	ID int64
}

func (p PlainID) IsZero() bool { return p.ID == 0 }
func (PlainID) identifier()    {}

// ListItemID addresses an item through the list that holds it. A zero ID
// addresses every item of the list.
type ListItemID struct {
	ListID int64
	ID     int64
}

func (l ListItemID) IsZero() bool { return l.ID == 0 }
func (ListItemID) identifier()    {}

// route is a parsed request path.
type route struct {
	entity string
	id     Identifier
}

// parseRoute splits a request path under /api/. ok is false for paths that
// do not name an entity or carry malformed ids.
func parseRoute(path string) (route, bool) {
	rest, found := strings.CutPrefix(path, "/api/")
	if !found {
		return route{}, false
	}

	var segs []string
	for _, s := range strings.Split(rest, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}

	switch len(segs) {
	case 1:
		return route{entity: segs[0], id: PlainID{}}, true
	case 2:
		id, ok := parseID(segs[1])
		if !ok {
			return route{}, false
		}
		return route{entity: segs[0], id: PlainID{ID: id}}, true
	case 3, 4:
		if segs[0] != "lists" || segs[2] != "items" {
			return route{}, false
		}
		listID, ok := parseID(segs[1])
		if !ok || listID == 0 {
			return route{}, false
		}
		var id int64
		if len(segs) == 4 {
			if id, ok = parseID(segs[3]); !ok {
				return route{}, false
			}
		}
		return route{entity: "items", id: ListItemID{ListID: listID, ID: id}}, true
	}
	return route{}, false
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
