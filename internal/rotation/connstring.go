package rotation

import (
	"fmt"
	"strings"
)

// connectionCandidates lists the credential-bearing URI fields in the
// fixed priority order TestSecret tries them. The order is data so it is
// not duplicated across the rewrite and fallback paths.
var connectionCandidates = []struct {
	key string
	get func(*Dictionary) *string
}{
	{FieldPrivateConnectionStringSRV, func(d *Dictionary) *string { return &d.PrivateConnectionStringSRV }},
	{FieldPrivateConnectionString, func(d *Dictionary) *string { return &d.PrivateConnectionString }},
	{FieldConnectionStringSRV, func(d *Dictionary) *string { return &d.ConnectionStringSRV }},
	{FieldConnectionString, func(d *Dictionary) *string { return &d.ConnectionString }},
}

// connectionField resolves a candidate key to its dictionary field.
func connectionField(d *Dictionary, key string) (*string, bool) {
	for _, candidate := range connectionCandidates {
		if candidate.key == key {
			return candidate.get(d), true
		}
	}
	return nil, false
}

// RewriteConnectionString replaces the credentials embedded in the named
// connection-string field with the dictionary's username and the new
// password.
//
// The stored value is assumed to have the shape
// "scheme//old-userinfo@host/path": the value is split on "/" and
// rebuilt from segments 0 (scheme), 2 (host), and 3 (path). URIs with a
// different slash count are rejected rather than silently mis-rewritten;
// values with extra path segments beyond position 3 are still truncated,
// a known limitation of the stored format.
func RewriteConnectionString(key string, dict *Dictionary, password string) error {
	field, ok := connectionField(dict, key)
	if !ok {
		return ValidationError{Field: key, Message: "not a connection-string field"}
	}

	segments := strings.Split(*field, "/")
	if len(segments) < 4 {
		return ValidationError{
			Field:   key,
			Message: fmt.Sprintf("connection string has %d segments, want scheme//host/path", len(segments)),
		}
	}

	host := segments[2]
	if at := strings.LastIndex(host, "@"); at != -1 {
		host = host[at+1:]
	}

	*field = fmt.Sprintf("%s//%s:%s@%s/%s", segments[0], dict.Username, password, host, segments[3])
	return nil
}

// RewriteAllConnectionStrings runs the synthesizer over every connection
// field that is present and non-blank.
func RewriteAllConnectionStrings(dict *Dictionary, password string) error {
	for _, candidate := range connectionCandidates {
		if strings.TrimSpace(*candidate.get(dict)) == "" {
			continue
		}
		if err := RewriteConnectionString(candidate.key, dict, password); err != nil {
			return err
		}
	}
	return nil
}
