package ratelimit

import "strings"

// MatchEndpoint resolves the endpoint configuration governing a request.
// Exact path+method matches win; configs whose path ends in "/" act as
// prefix rules, so "/sessions/" covers every per-session operation. Returns
// nil when only the default limit applies.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Health probes are never limited.
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	var prefixMatch *EndpointConfig
	for i := range configs {
		ec := &configs[i]
		if ec.Method != method {
			continue
		}
		if ec.Path == path {
			return ec
		}
		if prefixMatch == nil && strings.HasSuffix(ec.Path, "/") && strings.HasPrefix(path, ec.Path) {
			prefixMatch = ec
		}
	}
	return prefixMatch
}
