// Package mcp exposes the context store as Model Context Protocol tools so
// agent skills (morning briefing, todo triage, meeting prep, summaries) can
// read and write todos, meetings, communication logs, briefings, summaries
// and preferences.
//
// Tool names are snake_case; arguments and JSON results use the camelCase
// field names of the store models. A lookup that finds nothing returns a
// plain text result, and invalid arguments or store failures return a result
// with IsError set, so the agent can read the reason.
//
// Transport is selected at runtime:
//   - stdio: standard MCP stdio transport (default), for local agents.
//   - http: Streamable HTTP transport, for remote or concurrent clients.
package mcp
