package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/effective-security/sqlagent/catalog"
	"github.com/effective-security/sqlagent/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const discoveryResponse = `{
	"jsonrpc": "2.0",
	"result": {
		"tools": [
			{
				"name": "getDatabaseSchema",
				"description": "Lists all tables in the database."
			},
			{
				"name": "getTableSchema",
				"description": "Returns the columns of a table.",
				"parameters": {
					"type": "object",
					"properties": {
						"tableName": {"type": "string", "description": "The name of the table."}
					},
					"required": ["tableName"]
				}
			}
		]
	},
	"id": "1"
}`

func Test_Discover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(discoveryResponse))
	}))
	defer srv.Close()

	cat, err := catalog.Discover(context.Background(), jsonrpc.NewClient(srv.URL, 0))
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	// discovery order is preserved
	assert.Equal(t, []string{"getDatabaseSchema", "getTableSchema"}, cat.Names())
	assert.Equal(t, "getDatabaseSchema, getTableSchema", cat.Summary())

	// no parameters key yields an empty parameter map
	def := cat.Lookup("getDatabaseSchema")
	require.NotNil(t, def)
	assert.Empty(t, def.Parameters)

	def = cat.Lookup("getTableSchema")
	require.NotNil(t, def)
	require.Len(t, def.Parameters, 1)
	assert.Equal(t, "string", def.Parameters["tableName"].Type)
	assert.Equal(t, "The name of the table.", def.Parameters["tableName"].Description)
}

func Test_Lookup_CaseInsensitive(t *testing.T) {
	cat := catalog.New(&catalog.Definition{Name: "getTableSchema"})

	assert.NotNil(t, cat.Lookup("getTableSchema"))
	assert.NotNil(t, cat.Lookup("GETTABLESCHEMA"))
	assert.NotNil(t, cat.Lookup("gettableschema"))
	assert.Nil(t, cat.Lookup("dropTable"))
}

func Test_New_DuplicateNames(t *testing.T) {
	cat := catalog.New(
		&catalog.Definition{Name: "getTools", Description: "first"},
		&catalog.Definition{Name: "GetTools", Description: "second"},
	)
	require.Equal(t, 1, cat.Len())
	assert.Equal(t, "first", cat.Lookup("gettools").Description)
}

func Test_Discover_Errors(t *testing.T) {
	tcases := []struct {
		name string
		body string
		exp  string
	}{
		{"not_json", "not json", "invalid JSON response"},
		{"missing_tools", `{"jsonrpc":"2.0","result":{},"id":"1"}`, "missing result.tools"},
		{"rpc_error", `{"jsonrpc":"2.0","error":{"code":-32000,"message":"db down"},"id":"1"}`, "db down"},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := catalog.Discover(context.Background(), jsonrpc.NewClient(srv.URL, 0))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.exp)
		})
	}
}

func Test_Discover_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := catalog.Discover(context.Background(), jsonrpc.NewClient(srv.URL, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool discovery failed")
}

func Test_Describe(t *testing.T) {
	defs := make([]*catalog.Definition, 0, 5)
	for i := 0; i < 5; i++ {
		defs = append(defs, &catalog.Definition{
			Name:        gofakeit.Word() + gofakeit.LetterN(4),
			Description: gofakeit.Sentence(6),
		})
	}
	cat := catalog.New(defs...)

	desc := cat.Describe()
	assert.Contains(t, desc, "```json")
	for _, def := range cat.List() {
		assert.Contains(t, desc, def.Name)
	}
}
