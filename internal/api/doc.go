// Package api implements the puretodo JSON API.
//
// Requests are addressed as /api/{entity}[/{id}] or, for items scoped to a
// list, /api/lists/{listId}/items[/{id}]. The Router maps the HTTP verb and
// the presence of an id onto one of five repository operations:
//
//	GET    without id  index
//	GET    with id     read
//	POST               create
//	PUT, PATCH         update
//	DELETE             delete
//
// Every repository declares two gates, authorization required and admin
// required, which are evaluated by pkg/authz before dispatch. Errors are
// returned as {"errors":[{"title":"..."}]}.
package api
