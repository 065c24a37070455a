package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gobeyondidentity/puretodo/pkg/store"
)

// errBadJSON marks a request body that is not a JSON object.
var errBadJSON = errors.New("request body must be a JSON object")

// Request body schemas, keyed by entity and operation.
var schemaSources = map[string]string{
	"users.create": `{
		"type": "object",
		"required": ["username"],
		"properties": {
			"username": {"type": "string", "minLength": 1, "maxLength": 64},
			"name":     {"type": "string", "maxLength": 128},
			"admin":    {"type": "boolean"}
		}
	}`,
	"users.update": `{
		"type": "object",
		"properties": {
			"username":     {"type": "string", "minLength": 1, "maxLength": 64},
			"name":         {"type": "string", "maxLength": 128},
			"admin":        {"type": "boolean"},
			"disabled":     {"type": "boolean"},
			"refreshToken": {"type": "boolean"}
		}
	}`,
	"lists.create": `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name":     {"type": "string", "minLength": 1, "maxLength": 256},
			"shared":   {"type": "boolean"},
			"priority": {"type": "integer"}
		}
	}`,
	"lists.update": `{
		"type": "object",
		"properties": {
			"name":     {"type": "string", "minLength": 1, "maxLength": 256},
			"shared":   {"type": "boolean"},
			"priority": {"type": "integer"}
		}
	}`,
	"items.create": `{
		"type": "object",
		"required": ["title"],
		"properties": {
			"listId":   {"type": "integer", "minimum": 1},
			"title":    {"type": "string", "minLength": 1, "maxLength": 1024},
			"priority": {"type": ["integer", "null"]},
			"finished": {"type": "boolean"}
		}
	}`,
	"items.update": `{
		"type": "object",
		"properties": {
			"listId":   {"type": "integer", "minimum": 1},
			"title":    {"type": "string", "minLength": 1, "maxLength": 1024},
			"priority": {"type": "integer"},
			"finished": {"type": "boolean"}
		}
	}`,
}

// schemas holds the compiled form of schemaSources.
var schemas = mustCompileSchemas(schemaSources)

func mustCompileSchemas(sources map[string]string) map[string]*jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	for name, src := range sources {
		if err := compiler.AddResource(schemaURL(name), strings.NewReader(src)); err != nil {
			panic(fmt.Sprintf("schema %s: %v", name, err))
		}
	}

	compiled := make(map[string]*jsonschema.Schema, len(sources))
	for name := range sources {
		s, err := compiler.Compile(schemaURL(name))
		if err != nil {
			panic(fmt.Sprintf("schema %s: %v", name, err))
		}
		compiled[name] = s
	}
	return compiled
}

func schemaURL(name string) string {
	return "mem://puretodo/" + name + ".json"
}

// decodeBody validates body against the named schema and decodes it into
// dst. An empty body is treated as {}. Syntax errors wrap errBadJSON;
// schema violations wrap store.ErrInvalid.
func decodeBody(body []byte, schema string, dst any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return errBadJSON
	}

	s, ok := schemas[schema]
	if !ok {
		return fmt.Errorf("no schema named %q", schema)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", schemaMessage(err), store.ErrInvalid)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

// schemaMessage returns the first leaf cause of a validation error, as
// "field: message".
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	if field == "" {
		return ve.Message
	}
	return field + ": " + ve.Message
}
