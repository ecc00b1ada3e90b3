// Package mcp exposes an arrangement workspace over the Model Context
// Protocol. It wraps github.com/felixgeelhaar/mcp-go so a host UI or an
// agent can drive a session through tool calls.
package mcp

import (
	mcpgo "github.com/felixgeelhaar/mcp-go"
)

// Re-export core types from mcp-go for convenience.
type (
	// ServerInfo contains MCP server metadata.
	ServerInfo = mcpgo.ServerInfo

	// ServeOption configures server behavior.
	ServeOption = mcpgo.ServeOption

	// Middleware is a function that wraps request handling.
	Middleware = mcpgo.Middleware
)

// Re-export middleware constructors from mcp-go.
var (
	Recover   = mcpgo.Recover
	RequestID = mcpgo.RequestID
	Timeout   = mcpgo.Timeout
)
