package transport

// Version is the current build version, injected at build time via ldflags:
//
//	-X github.com/Easy-Infra-Ltd/phish-preview/src/transport.Version=<tag>
//
// Defaults to "dev" when built without ldflags (local development).
var Version = "dev"

// ImplementationName identifies this service to MCP peers.
const ImplementationName = "phish-preview"
