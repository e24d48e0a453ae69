package invoker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/effective-security/sqlagent/catalog"
	"github.com/effective-security/sqlagent/decision"
	"github.com/effective-security/sqlagent/invoker"
	"github.com/effective-security/sqlagent/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(
		&catalog.Definition{
			Name:        "getDatabaseSchema",
			Description: "Lists all tables in the database.",
		},
		&catalog.Definition{
			Name:        "getTableSchema",
			Description: "Returns the columns of a table.",
			Parameters: map[string]catalog.Parameter{
				"tableName": {Type: "string", Description: "The name of the table."},
			},
		},
	)
}

func Test_Invoke_Success(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req jsonrpc.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "getDatabaseSchema", req.Method)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":["dbo.Users"],"id":"` + req.ID + `"}`))
	}))
	defer srv.Close()

	iv := invoker.New(testCatalog(), jsonrpc.NewClient(srv.URL, 0))
	res := iv.Invoke(context.Background(), "getDatabaseSchema", map[string]decision.Value{})

	assert.False(t, res.Failed())
	assert.Equal(t, []any{"dbo.Users"}, res.Value)
	assert.Contains(t, res.Text(), "dbo.Users")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func Test_Invoke_UnknownTool_NoNetworkCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	iv := invoker.New(testCatalog(), jsonrpc.NewClient(srv.URL, 0))
	res := iv.Invoke(context.Background(), "dropTable", nil)

	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "Tool `dropTable` not found")
	assert.Contains(t, res.Err, "getDatabaseSchema")
	assert.Contains(t, res.Err, "getTableSchema")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func Test_Invoke_CaseInsensitiveLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// the declared name is used on the wire, not the model's casing
		require.Equal(t, "getDatabaseSchema", req.Method)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":[],"id":"` + req.ID + `"}`))
	}))
	defer srv.Close()

	iv := invoker.New(testCatalog(), jsonrpc.NewClient(srv.URL, 0))
	res := iv.Invoke(context.Background(), "GETDATABASESCHEMA", map[string]decision.Value{})
	assert.False(t, res.Failed())
}

func Test_Invoke_MissingParameter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	iv := invoker.New(testCatalog(), jsonrpc.NewClient(srv.URL, 0))
	res := iv.Invoke(context.Background(), "getTableSchema", map[string]decision.Value{})

	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "Missing required parameter `tableName`")
	assert.Contains(t, res.Err, "The name of the table.")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func Test_Invoke_UnexpectedParameter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	iv := invoker.New(testCatalog(), jsonrpc.NewClient(srv.URL, 0))
	res := iv.Invoke(context.Background(), "getTableSchema", map[string]decision.Value{
		"tableName": decision.String("Users"),
		"limit":     decision.Number(5),
	})

	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "Unexpected parameter `limit`")
	assert.Contains(t, res.Err, "tableName")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func Test_Invoke_ParametersOnWire(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params map[string]any `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]any{"tableName": "Users"}, req.Params)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":{"columns":["Id","Name"]},"id":"1"}`))
	}))
	defer srv.Close()

	iv := invoker.New(testCatalog(), jsonrpc.NewClient(srv.URL, 0))
	res := iv.Invoke(context.Background(), "getTableSchema", map[string]decision.Value{
		"tableName": decision.String("Users"),
	})
	require.False(t, res.Failed())
}

func Test_Invoke_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32000,"message":"db connection lost"},"id":"1"}`))
	}))
	defer srv.Close()

	iv := invoker.New(testCatalog(), jsonrpc.NewClient(srv.URL, 0))
	res := iv.Invoke(context.Background(), "getDatabaseSchema", map[string]decision.Value{})

	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "Tool call failed")
	assert.Contains(t, res.Err, "db connection lost")
}

func Test_Invoke_NoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"1"}`))
	}))
	defer srv.Close()

	iv := invoker.New(testCatalog(), jsonrpc.NewClient(srv.URL, 0))
	res := iv.Invoke(context.Background(), "getDatabaseSchema", map[string]decision.Value{})

	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "no result in response")
}
