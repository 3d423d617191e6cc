package acs

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ConnectionString holds the parsed parts of a Communication Services
// connection string ("endpoint=https://...;accesskey=...").
type ConnectionString struct {
	Endpoint  string
	AccessKey []byte
}

// ParseConnectionString splits and validates a platform connection string.
// The access key is base64 and is decoded here once so signing never has to.
func ParseConnectionString(s string) (*ConnectionString, error) {
	var endpoint, key string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("malformed connection string segment %q", part)
		}
		switch strings.ToLower(name) {
		case "endpoint":
			endpoint = strings.TrimRight(value, "/")
		case "accesskey":
			key = value
		}
	}
	if endpoint == "" || key == "" {
		return nil, fmt.Errorf("connection string must contain endpoint and accesskey")
	}
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("access key is not valid base64: %w", err)
	}
	return &ConnectionString{Endpoint: endpoint, AccessKey: decoded}, nil
}
