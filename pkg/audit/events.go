package audit

import (
	"strconv"
	"time"
)

// Severity represents syslog severity levels per RFC 5424.
type Severity int

const (
	SeverityError   Severity = 3
	SeverityWarning Severity = 4
	SeverityNotice  Severity = 5
	SeverityInfo    Severity = 6
)

// String returns the human-readable name for a severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityNotice:
		return "NOTICE"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// EventType identifies a security-relevant audit event.
type EventType string

const (
	EventAuthSuccess   EventType = "auth.success"
	EventAuthFailure   EventType = "auth.failure"
	EventAccessDenied  EventType = "access.denied"
	EventSetupComplete EventType = "setup.complete"
	EventTokenIssued   EventType = "token.issued"
	EventUserCreate    EventType = "user.create"
	EventUserUpdate    EventType = "user.update"
	EventUserDelete    EventType = "user.delete"
	EventListCreate    EventType = "list.create"
	EventListUpdate    EventType = "list.update"
	EventListDelete    EventType = "list.delete"
	EventItemCreate    EventType = "item.create"
	EventItemUpdate    EventType = "item.update"
	EventItemDelete    EventType = "item.delete"
)

// severityMap maps each event type to its syslog severity.
var severityMap = map[EventType]Severity{
	EventAuthSuccess:   SeverityInfo,
	EventAuthFailure:   SeverityWarning,
	EventAccessDenied:  SeverityWarning,
	EventSetupComplete: SeverityNotice,
	EventTokenIssued:   SeverityNotice,
	EventUserCreate:    SeverityNotice,
	EventUserUpdate:    SeverityNotice,
	EventUserDelete:    SeverityWarning,
	EventListCreate:    SeverityInfo,
	EventListUpdate:    SeverityInfo,
	EventListDelete:    SeverityInfo,
	EventItemCreate:    SeverityInfo,
	EventItemUpdate:    SeverityInfo,
	EventItemDelete:    SeverityInfo,
}

// SeverityFor returns the syslog severity for a given event type.
// Unknown event types are treated as warnings.
func SeverityFor(et EventType) Severity {
	if s, ok := severityMap[et]; ok {
		return s
	}
	return SeverityWarning
}

// Event represents a security-relevant audit event with structured fields.
type Event struct {
	Type      EventType
	Severity  Severity
	Timestamp time.Time
	Actor     string // username of the caller, empty when anonymous
	Target    string // entity/id the event concerns, e.g. "items/12"
	IP        string
	RequestID string
	Details   map[string]string
}

// NewAuthSuccess creates an auth.success event for a resolved bearer token.
func NewAuthSuccess(actor, ip, method, path, requestID string) Event {
	return Event{
		Type:      EventAuthSuccess,
		Severity:  SeverityInfo,
		Timestamp: time.Now(),
		Actor:     actor,
		IP:        ip,
		RequestID: requestID,
		Details: map[string]string{
			"method": method,
			"path":   path,
		},
	}
}

// NewAuthFailure creates an auth.failure event. status is the token status
// name that caused the rejection.
func NewAuthFailure(ip, status, method, path, requestID string) Event {
	return Event{
		Type:      EventAuthFailure,
		Severity:  SeverityWarning,
		Timestamp: time.Now(),
		IP:        ip,
		RequestID: requestID,
		Details: map[string]string{
			"status": status,
			"method": method,
			"path":   path,
		},
	}
}

// NewAccessDenied creates an access.denied event for a request rejected by
// an authorization gate.
func NewAccessDenied(actor, ip, entity, reason, requestID string) Event {
	return Event{
		Type:      EventAccessDenied,
		Severity:  SeverityWarning,
		Timestamp: time.Now(),
		Actor:     actor,
		IP:        ip,
		Target:    entity,
		RequestID: requestID,
		Details: map[string]string{
			"reason": reason,
		},
	}
}

// NewSetupComplete records creation of the first admin account.
func NewSetupComplete(actor, ip, requestID string) Event {
	return Event{
		Type:      EventSetupComplete,
		Severity:  SeverityNotice,
		Timestamp: time.Now(),
		Actor:     actor,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]string{},
	}
}

// NewTokenIssued records that a user's token was replaced, revoking the
// previous one.
func NewTokenIssued(actor, username, requestID string) Event {
	return Event{
		Type:      EventTokenIssued,
		Severity:  SeverityNotice,
		Timestamp: time.Now(),
		Actor:     actor,
		Target:    "users/" + username,
		RequestID: requestID,
		Details:   map[string]string{},
	}
}

// NewMutation records a create, update or delete of an entity row.
func NewMutation(et EventType, actor, ip string, entity string, id int64, requestID string) Event {
	return Event{
		Type:      et,
		Severity:  SeverityFor(et),
		Timestamp: time.Now(),
		Actor:     actor,
		IP:        ip,
		Target:    entity + "/" + strconv.FormatInt(id, 10),
		RequestID: requestID,
		Details:   map[string]string{},
	}
}

// MutationEvent returns the event type for an entity key and HTTP verb, or
// "" when the combination is not audited.
func MutationEvent(entity, method string) EventType {
	var verb string
	switch method {
	case "POST":
		verb = "create"
	case "PUT", "PATCH":
		verb = "update"
	case "DELETE":
		verb = "delete"
	default:
		return ""
	}

	var noun string
	switch entity {
	case "users":
		noun = "user"
	case "lists":
		noun = "list"
	case "items":
		noun = "item"
	default:
		return ""
	}
	return EventType(noun + "." + verb)
}
