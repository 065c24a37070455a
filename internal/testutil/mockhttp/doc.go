// Package mockhttp builds canned HTTP servers for client tests.
//
// Responses are matched by method and path. Unmatched requests get 404
// with an empty body. Error responses use the API's error envelope:
//
//	srv, capture := mockhttp.New().
//		Error("GET", "/api/lists", http.StatusForbidden, "This request requires authorization", "Expired").
//		JSON("GET", "/api/status", http.StatusOK, status).
//		Build(t)
//
//	// ... point a client at srv.URL ...
//	req := capture.Last()
package mockhttp
