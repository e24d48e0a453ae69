// Package catalog holds the set of tools discovered from the remote tool
// server. The catalog is built once per run and treated as read-only; it may
// be shared across conversations.
package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/sqlagent/jsonrpc"
	"github.com/effective-security/sqlagent/llmutils"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/sqlagent", "catalog")

// Parameter describes one declared tool parameter.
// All declared parameters are required; there is no optional-parameter concept.
type Parameter struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Definition describes one tool exposed by the remote server.
// Immutable after discovery.
type Definition struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]Parameter `json:"parameters"`
}

// Catalog provides case-insensitive lookup over the discovered tools.
type Catalog struct {
	byName map[string]*Definition
	defs   []*Definition
	names  []string
}

// New builds a catalog from the given definitions, keeping discovery order.
// Duplicate names under case-insensitive comparison are skipped.
func New(defs ...*Definition) *Catalog {
	c := &Catalog{
		byName: make(map[string]*Definition, len(defs)),
	}
	for _, def := range defs {
		// use lowercase for the key
		key := strings.ToLower(def.Name)
		if c.byName[key] != nil {
			logger.KV(xlog.WARNING,
				"status", "duplicate_tool_skipped",
				"tool", def.Name,
			)
			continue
		}
		if def.Parameters == nil {
			def.Parameters = map[string]Parameter{}
		}
		c.byName[key] = def
		c.defs = append(c.defs, def)
		c.names = append(c.names, def.Name)
	}
	return c
}

// discovery response shape: result.tools with JSON-Schema-like parameters
type toolPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  *struct {
		Type       string               `json:"type"`
		Properties map[string]Parameter `json:"properties"`
		Required   []string             `json:"required"`
	} `json:"parameters"`
}

type discoveryPayload struct {
	Tools []toolPayload `json:"tools"`
}

// Discover issues one getTools call to the remote server and builds the
// catalog from the response. No automatic retry is performed; retry policy
// belongs to the caller.
func Discover(ctx context.Context, client *jsonrpc.Client) (*Catalog, error) {
	raw, err := client.Call(ctx, "getTools", nil)
	if err != nil {
		return nil, errors.WithMessage(err, "tool discovery failed")
	}

	var payload discoveryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "invalid discovery response")
	}
	if payload.Tools == nil {
		return nil, errors.New("discovery response missing result.tools")
	}

	defs := make([]*Definition, 0, len(payload.Tools))
	for _, tool := range payload.Tools {
		def := &Definition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  map[string]Parameter{},
		}
		if tool.Parameters != nil {
			for name, param := range tool.Parameters.Properties {
				def.Parameters[name] = param
			}
		}
		defs = append(defs, def)
	}

	cat := New(defs...)
	logger.ContextKV(ctx, xlog.INFO,
		"status", "discovered",
		"tools", len(cat.defs),
		"endpoint", client.Endpoint(),
	)
	return cat, nil
}

// Lookup returns the tool definition for the given name using
// case-insensitive exact match, or nil when the tool is unknown.
func (c *Catalog) Lookup(name string) *Definition {
	return c.byName[strings.ToLower(name)]
}

// List returns all tools in discovery order.
func (c *Catalog) List() []*Definition {
	return c.defs
}

// Names returns the tool names in discovery order.
func (c *Catalog) Names() []string {
	return c.names
}

// Summary returns a comma-joined list of tool names for prompt building.
func (c *Catalog) Summary() string {
	return strings.Join(c.names, ", ")
}

// Len returns the number of tools in the catalog.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Describe returns a JSON description of the catalog for the system prompt.
func (c *Catalog) Describe() string {
	type toolDescription struct {
		Name        string               `json:"Name"`
		Description string               `json:"Description"`
		Parameters  map[string]Parameter `json:"Parameters,omitempty"`
	}
	var d struct {
		Tools []toolDescription `json:"Tools"`
	}
	for _, def := range c.defs {
		d.Tools = append(d.Tools, toolDescription{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}
