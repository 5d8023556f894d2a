package rotation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Well-known dictionary fields. JSON keys match what operators store in
// Secrets Manager for the single-user MongoDB Atlas rotation scheme.
const (
	FieldEngine                     = "engine"
	FieldUsername                   = "username"
	FieldPassword                   = "password"
	FieldProjectID                  = "project_id"
	FieldProjectName                = "project_name"
	FieldAuthDatabase               = "auth_database"
	FieldConnectionString           = "connection_string"
	FieldConnectionStringSRV        = "connection_string_srv"
	FieldPrivateConnectionString    = "private_connection_string"
	FieldPrivateConnectionStringSRV = "private_connection_string_srv"
)

// DefaultAuthDatabase is used when the dictionary does not name one.
const DefaultAuthDatabase = "admin"

// dictionarySchema validates the raw secret payload before any step
// logic runs. Only shape is checked here; the engine whitelist is a
// deployment concern checked separately.
const dictionarySchema = `{
	"type": "object",
	"required": ["engine", "username", "password"],
	"properties": {
		"engine":                        {"type": "string", "minLength": 1},
		"username":                      {"type": "string", "minLength": 1},
		"password":                      {"type": "string"},
		"project_id":                    {"type": "string"},
		"project_name":                  {"type": "string"},
		"auth_database":                 {"type": "string"},
		"connection_string":             {"type": "string"},
		"connection_string_srv":         {"type": "string"},
		"private_connection_string":     {"type": "string"},
		"private_connection_string_srv": {"type": "string"}
	}
}`

var compiledDictionarySchema = gojsonschema.NewStringLoader(dictionarySchema)

// Dictionary is one immutable snapshot of the rotated secret's value.
// A rotation never mutates a stored version; CreateSecret writes a
// brand-new version built from a copy of the current one.
//
// Extra preserves operator-added keys that the rotation scheme does not
// interpret, so rewriting the secret never drops them.
type Dictionary struct {
	Engine       string
	Username     string
	Password     string
	ProjectID    string
	ProjectName  string
	AuthDatabase string

	ConnectionString           string
	ConnectionStringSRV        string
	PrivateConnectionString    string
	PrivateConnectionStringSRV string

	Extra map[string]string
}

// knownFields maps JSON keys to accessors on Dictionary. The same table
// drives unmarshaling, marshaling, and the connection-candidate loop, so
// field order and spelling live in exactly one place.
var knownFields = []struct {
	key string
	get func(*Dictionary) *string
}{
	{FieldEngine, func(d *Dictionary) *string { return &d.Engine }},
	{FieldUsername, func(d *Dictionary) *string { return &d.Username }},
	{FieldPassword, func(d *Dictionary) *string { return &d.Password }},
	{FieldProjectID, func(d *Dictionary) *string { return &d.ProjectID }},
	{FieldProjectName, func(d *Dictionary) *string { return &d.ProjectName }},
	{FieldAuthDatabase, func(d *Dictionary) *string { return &d.AuthDatabase }},
	{FieldConnectionString, func(d *Dictionary) *string { return &d.ConnectionString }},
	{FieldConnectionStringSRV, func(d *Dictionary) *string { return &d.ConnectionStringSRV }},
	{FieldPrivateConnectionString, func(d *Dictionary) *string { return &d.PrivateConnectionString }},
	{FieldPrivateConnectionStringSRV, func(d *Dictionary) *string { return &d.PrivateConnectionStringSRV }},
}

// ParseDictionary validates the raw secret JSON against the payload
// schema and the configured engine, then decodes it. Any engine mismatch
// is a validation failure before step logic runs.
func ParseDictionary(raw string, engine string) (Dictionary, error) {
	result, err := gojsonschema.Validate(compiledDictionarySchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return Dictionary{}, ValidationError{Message: fmt.Sprintf("secret payload is not valid JSON: %v", err)}
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return Dictionary{}, ValidationError{Message: "secret payload failed schema validation: " + strings.Join(problems, "; ")}
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Dictionary{}, ValidationError{Message: fmt.Sprintf("secret payload must be a flat string map: %v", err)}
	}

	var dict Dictionary
	for _, field := range knownFields {
		if value, ok := fields[field.key]; ok {
			*field.get(&dict) = value
			delete(fields, field.key)
		}
	}
	if len(fields) > 0 {
		dict.Extra = fields
	}

	if dict.Engine != engine {
		return Dictionary{}, ValidationError{
			Field:   FieldEngine,
			Message: fmt.Sprintf("unsupported engine %q, this deployment rotates %q", dict.Engine, engine),
		}
	}
	return dict, nil
}

// Encode serializes the dictionary back to the stored JSON shape,
// including preserved extra keys. Empty known fields are omitted so a
// copy of a sparse secret stays sparse.
func (d Dictionary) Encode() (string, error) {
	fields := make(map[string]string, len(knownFields)+len(d.Extra))
	for key, value := range d.Extra {
		fields[key] = value
	}
	for _, field := range knownFields {
		if value := *field.get(&d); value != "" {
			fields[field.key] = value
		}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal secret payload: %w", err)
	}
	return string(data), nil
}

// ResolvedAuthDatabase returns the auth database, defaulting to "admin".
func (d Dictionary) ResolvedAuthDatabase() string {
	if d.AuthDatabase == "" {
		return DefaultAuthDatabase
	}
	return d.AuthDatabase
}
