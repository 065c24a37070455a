package client

import (
	"net/url"
	"strconv"
)

// Status is the server's view of the caller.
type Status struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	JwtStatus     string `json:"jwtStatus" yaml:"jwtStatus"`
	SetupMode     bool   `json:"setupMode" yaml:"setupMode"`
	User          *User  `json:"user" yaml:"user,omitempty"`
}

// User is an account. Token is only present for admins and for the user
// itself.
type User struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Name     string `json:"name" yaml:"name"`
	Admin    bool   `json:"admin" yaml:"admin"`
	Disabled bool   `json:"disabled" yaml:"disabled"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
}

type NewUser struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Admin    bool   `json:"admin,omitempty"`
}

type UserPatch struct {
	Username     *string `json:"username,omitempty"`
	Name         *string `json:"name,omitempty"`
	Admin        *bool   `json:"admin,omitempty"`
	Disabled     *bool   `json:"disabled,omitempty"`
	RefreshToken bool    `json:"refreshToken,omitempty"`
}

// List is a todo list. Timestamps are RFC 3339.
type List struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Shared      bool   `json:"shared" yaml:"shared"`
	Priority    int    `json:"priority" yaml:"priority"`
	Created     string `json:"created" yaml:"created"`
	Modified    string `json:"modified" yaml:"modified"`
	Prioritized string `json:"prioritized" yaml:"prioritized"`
}

type NewList struct {
	Name     string `json:"name"`
	Shared   bool   `json:"shared,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

type ListPatch struct {
	Name     *string `json:"name,omitempty"`
	Shared   *bool   `json:"shared,omitempty"`
	Priority *int    `json:"priority,omitempty"`
}

// Item is an entry of a list. Unfinished items have priorities 1..N with N
// at the top; finished items have priority 0.
type Item struct {
	ID          int64  `json:"id" yaml:"id"`
	ListID      int64  `json:"listId" yaml:"listId"`
	Title       string `json:"title" yaml:"title"`
	Priority    int    `json:"priority" yaml:"priority"`
	Finished    bool   `json:"finished" yaml:"finished"`
	Created     string `json:"created" yaml:"created"`
	Modified    string `json:"modified" yaml:"modified"`
	Prioritized string `json:"prioritized" yaml:"prioritized"`
}

type NewItem struct {
	ListID   int64  `json:"listId"`
	Title    string `json:"title"`
	Priority *int   `json:"priority,omitempty"`
	Finished bool   `json:"finished,omitempty"`
}

type ItemPatch struct {
	ListID   *int64  `json:"listId,omitempty"`
	Title    *string `json:"title,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	Finished *bool   `json:"finished,omitempty"`
}

// ItemFilter narrows ListItems. Nil fields do not filter.
type ItemFilter struct {
	ListID   *int64
	Finished *bool
}

func (f ItemFilter) values() url.Values {
	q := url.Values{}
	if f.ListID != nil {
		q.Set("where[listId]", strconv.FormatInt(*f.ListID, 10))
	}
	if f.Finished != nil {
		q.Set("where[finished]", strconv.FormatBool(*f.Finished))
	}
	return q
}
