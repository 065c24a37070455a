package authz

import "github.com/cedar-policy/cedar-go"

const resourceType = "Todo::Resource"

// buildEntities constructs the Cedar entity graph for one request: the
// principal and the resource, each with their gate attributes.
func buildEntities(p Principal, r Resource) cedar.EntityMap {
	principalUID := cedar.NewEntityUID(cedar.EntityType(p.Type), cedar.String(p.UID))
	resourceUID := cedar.NewEntityUID(resourceType, cedar.String(r.Entity))

	return cedar.EntityMap{
		principalUID: cedar.Entity{
			UID:     principalUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"authenticated": cedar.Boolean(p.Authenticated),
				"admin":         cedar.Boolean(p.Admin),
			}),
		},
		resourceUID: cedar.Entity{
			UID:     resourceUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"authorization_required": cedar.Boolean(r.AuthorizationRequired),
				"admin_required":         cedar.Boolean(r.AdminRequired),
			}),
		},
	}
}

// buildCedarRequest maps a Request to Cedar's evaluation format.
func buildCedarRequest(req Request) cedar.Request {
	return cedar.Request{
		Principal: cedar.NewEntityUID(cedar.EntityType(req.Principal.Type), cedar.String(req.Principal.UID)),
		Action:    cedar.NewEntityUID("Todo::Action", cedar.String(ActionAccess)),
		Resource:  cedar.NewEntityUID(resourceType, cedar.String(req.Resource.Entity)),
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	}
}
