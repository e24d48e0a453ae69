// Package schema reflects Go types into JSON schemas used to instruct
// the model about the expected response shape.
package schema

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/effective-security/sqlagent/llmutils"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	cache   = make(map[reflect.Type]*Schema)
	cacheMu sync.RWMutex
)

type Schema struct {
	*jsonschema.Schema
	// Parameters is the inlined schema, with top level $defs resolved,
	// suitable for embedding into a prompt.
	Parameters *jsonschema.Schema
}

// New creates a new schema from the given type
func New(t reflect.Type) (*Schema, error) {
	cacheMu.RLock()
	s, ok := cache[t]
	cacheMu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := buildSchema(t)
	if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	cache[t] = s
	cacheMu.Unlock()

	return s, nil
}

func (s *Schema) String() string {
	return llmutils.ToJSONIndent(s.Parameters)
}

// Instructions returns a prompt fragment that tells the model to respond
// with a single JSON object matching the schema.
func (s *Schema) Instructions() string {
	var sb strings.Builder
	sb.WriteString("Respond with a single JSON object that conforms to the schema below.\n")
	sb.WriteString("Do not add any text before or after the JSON object.\n\n")
	sb.WriteString("OUTPUT SCHEMA:\n```json\n")
	sb.WriteString(s.String())
	sb.WriteString("\n```")
	return sb.String()
}

func buildSchema(t reflect.Type) (*Schema, error) {
	schema := JSONSchema(t)

	s := &Schema{
		Schema:     schema,
		Parameters: ToFunctionSchema(t, schema),
	}

	return s, nil
}

// ToFunctionSchema inlines the root definition of the reflected schema,
// resolving $ref pointers so the result is self-contained.
func ToFunctionSchema(tType reflect.Type, tSchema *jsonschema.Schema) *jsonschema.Schema {
	refID := strings.TrimPrefix(tSchema.Ref, "#/$defs/")

	var defs = make(map[string]*jsonschema.Schema)
	var root *jsonschema.Schema

	for name, def := range tSchema.Definitions {
		if name == refID {
			root = def
		} else {
			defs[name] = def
		}
	}
	if root == nil {
		return tSchema
	}

	res := &jsonschema.Schema{
		Type:       root.Type,
		Properties: root.Properties,
		Required:   root.Required,
	}

	resolveRefs(res.Properties, defs)

	return res
}

func resolveRefs(props *orderedmap.OrderedMap[string, *jsonschema.Schema], defs map[string]*jsonschema.Schema) {
	if props == nil {
		return
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		child := pair.Value
		if child.Ref != "" {
			name := strings.TrimPrefix(child.Ref, "#/$defs/")
			if def, ok := defs[name]; ok {
				pair.Value = def
			} else {
				pair.Value = &jsonschema.Schema{
					Type:        "object",
					Description: child.Description,
					Properties:  child.Properties,
					Required:    child.Required,
				}
			}
		}
		if child.Properties != nil {
			resolveRefs(child.Properties, defs)
		}
		if child.Items != nil && child.Items.Ref != "" {
			name := strings.TrimPrefix(child.Items.Ref, "#/$defs/")
			if def, ok := defs[name]; ok {
				child.Items = def
			} else {
				child.Items = &jsonschema.Schema{
					Type:        "object",
					Description: child.Items.Description,
					Properties:  child.Items.Properties,
					Required:    child.Items.Required,
				}
			}
		}
	}
}

func (s *Schema) NameFromRef() string {
	return strings.Split(s.Ref, "/")[2] // ex: '#/$defs/MyStruct'
}

// JSONSchema return the json schema of the given type
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	r := new(jsonschema.Reflector)

	// Struct names may collide across packages, which breaks $ref
	// resolution. Qualify the definition name with a hash of the full
	// package path to keep it unique.
	// See https://github.com/invopop/jsonschema/issues/42
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			v := reflect.New(t)
			vt := v.Elem().Type()
			fullname := vt.PkgPath() + "/" + vt.Name()
			name = vt.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(fullname), 10)
		}
		return name
	}

	return r.ReflectFromType(t)
}
