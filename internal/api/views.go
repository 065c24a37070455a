package api

import (
	"time"

	"github.com/gobeyondidentity/puretodo/pkg/store"
)

// formatTime renders timestamps for the wire.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Admin    bool   `json:"admin"`
	Disabled bool   `json:"disabled"`
	Token    string `json:"token,omitempty"`
}

// toUserView renders u for viewer. The token is shown to admins and to the
// user it belongs to.
func toUserView(u *store.User, viewer *store.User) userView {
	v := userView{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Admin:    u.Admin,
		Disabled: u.Disabled,
	}
	if viewer != nil && (viewer.Admin || viewer.ID == u.ID) {
		v.Token = u.Token
	}
	return v
}

type listView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Shared      bool   `json:"shared"`
	Priority    int    `json:"priority"`
	Created     string `json:"created"`
	Modified    string `json:"modified"`
	Prioritized string `json:"prioritized"`
}

func toListView(l *store.List) listView {
	return listView{
		ID:          l.ID,
		Name:        l.Name,
		Shared:      l.Shared,
		Priority:    l.Priority,
		Created:     formatTime(l.Created),
		Modified:    formatTime(l.Modified),
		Prioritized: formatTime(l.Prioritized),
	}
}

type itemView struct {
	ID          int64  `json:"id"`
	ListID      int64  `json:"listId"`
	Title       string `json:"title"`
	Priority    int    `json:"priority"`
	Finished    bool   `json:"finished"`
	Created     string `json:"created"`
	Modified    string `json:"modified"`
	Prioritized string `json:"prioritized"`
}

func toItemView(i *store.Item) itemView {
	return itemView{
		ID:          i.ID,
		ListID:      i.ListID,
		Title:       i.Title,
		Priority:    i.Priority,
		Finished:    i.Finished,
		Created:     formatTime(i.Created),
		Modified:    formatTime(i.Modified),
		Prioritized: formatTime(i.Prioritized),
	}
}

type statusView struct {
	Authenticated bool      `json:"authenticated"`
	JwtStatus     string    `json:"jwtStatus"`
	SetupMode     bool      `json:"setupMode"`
	User          *userView `json:"user"`
}

type errorObject struct {
	Title string `json:"title"`
	Code  string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Errors []errorObject `json:"errors"`
}

func errorBody(title, code string) errorEnvelope {
	return errorEnvelope{Errors: []errorObject{{Title: title, Code: code}}}
}

// Request bodies. Pointer fields distinguish absent from zero.

type userCreateRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Admin    bool   `json:"admin"`
}

type userUpdateRequest struct {
	Username     *string `json:"username"`
	Name         *string `json:"name"`
	Admin        *bool   `json:"admin"`
	Disabled     *bool   `json:"disabled"`
	RefreshToken bool    `json:"refreshToken"`
}

type listCreateRequest struct {
	Name     string `json:"name"`
	Shared   bool   `json:"shared"`
	Priority int    `json:"priority"`
}

type listUpdateRequest struct {
	Name     *string `json:"name"`
	Shared   *bool   `json:"shared"`
	Priority *int    `json:"priority"`
}

type itemCreateRequest struct {
	ListID   int64  `json:"listId"`
	Title    string `json:"title"`
	Priority *int   `json:"priority"`
	Finished bool   `json:"finished"`
}

type itemUpdateRequest struct {
	ListID   *int64  `json:"listId"`
	Title    *string `json:"title"`
	Priority *int    `json:"priority"`
	Finished *bool   `json:"finished"`
}
