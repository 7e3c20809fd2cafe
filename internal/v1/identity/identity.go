// Package identity derives a client's network identity from the transport
// upgrade request. The identity is the moderation key for bans and mutes:
// it survives reconnects, unlike the per-connection id.
package identity

import (
	"net/http"

	"github.com/roomloop/signaling/internal/v1/types"
)

// HeaderXForwardedFor is consulted first so deployments behind a proxy key
// moderation on the real client address.
const HeaderXForwardedFor = "X-Forwarded-For"

// Unknown is returned when the request carries no usable address.
const Unknown types.IdentityType = "unknown"

// FromRequest extracts the network identity from an upgrade request. The
// forwarded-for value is taken verbatim (first-hop convention); the
// comma-separated list is deliberately not parsed.
func FromRequest(r *http.Request) types.IdentityType {
	if r == nil {
		return Unknown
	}
	if fwd := r.Header.Get(HeaderXForwardedFor); fwd != "" {
		return types.IdentityType(fwd)
	}
	if r.RemoteAddr != "" {
		return types.IdentityType(r.RemoteAddr)
	}
	return Unknown
}
