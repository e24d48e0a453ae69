package decision_test

import (
	"encoding/json"
	"testing"

	"github.com/effective-security/sqlagent/decision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse_CallTool(t *testing.T) {
	raw := `{"action":"call_tool","tool_name":"getTableSchema","parameters":{"tableName":"Users","limit":5,"exact":true},"reason":"inspect columns"}`
	dec := decision.Parse(raw)

	require.Equal(t, decision.ActionCallTool, dec.Action)
	require.NotNil(t, dec.CallTool)
	assert.Equal(t, "getTableSchema", dec.CallTool.ToolName)
	assert.Equal(t, "inspect columns", dec.CallTool.Reason)

	params := dec.CallTool.Parameters
	require.Len(t, params, 3)
	assert.Equal(t, decision.KindString, params["tableName"].Kind())
	assert.Equal(t, "Users", params["tableName"].Any())
	assert.Equal(t, decision.KindNumber, params["limit"].Kind())
	assert.Equal(t, int32(5), params["limit"].Any())
	assert.Equal(t, decision.KindBool, params["exact"].Kind())
	assert.Equal(t, true, params["exact"].Any())
}

func Test_Parse_FencedMarkdown(t *testing.T) {
	raw := "```json\n{\"action\":\"answer_user\",\"response\":\"42\"}\n```"
	dec := decision.Parse(raw)

	require.Equal(t, decision.ActionAnswerUser, dec.Action)
	require.NotNil(t, dec.AnswerUser)
	assert.Equal(t, "42", dec.AnswerUser.Response)
}

func Test_Parse_FallbackToAnswer(t *testing.T) {
	tcases := []string{
		"",
		"The answer is 42.",
		"```\nplain text in a fence\n```",
		`[1, 2, 3]`,
		`{"tool":"getTools"}`,
	}
	for _, raw := range tcases {
		dec := decision.Parse(raw)
		require.Equal(t, decision.ActionAnswerUser, dec.Action, "input: %q", raw)
		require.NotNil(t, dec.AnswerUser)
		// fallback preserves the entire original text
		assert.Equal(t, raw, dec.AnswerUser.Response, "input: %q", raw)
	}
}

func Test_Parse_MissingToolName(t *testing.T) {
	dec := decision.Parse(`{"action":"call_tool","parameters":{}}`)

	require.Equal(t, decision.ActionAskClarification, dec.Action)
	require.NotNil(t, dec.AskClarification)
	assert.Contains(t, dec.AskClarification.Question, "Missing 'tool_name' field")
}

func Test_Parse_EmptyFields(t *testing.T) {
	dec := decision.Parse(`{"action":"answer_user"}`)
	require.Equal(t, decision.ActionAnswerUser, dec.Action)
	assert.Empty(t, dec.AnswerUser.Response)

	dec = decision.Parse(`{"action":"ask_clarification"}`)
	require.Equal(t, decision.ActionAskClarification, dec.Action)
	assert.Empty(t, dec.AskClarification.Question)
}

func Test_Parse_InvalidAction(t *testing.T) {
	dec := decision.Parse(`{"action":"do_magic"}`)

	require.Equal(t, decision.ActionAskClarification, dec.Action)
	q := dec.AskClarification.Question
	assert.Contains(t, q, "do_magic")
	assert.Contains(t, q, "call_tool")
	assert.Contains(t, q, "answer_user")
	assert.Contains(t, q, "ask_clarification")
}

func Test_Parse_ToolNameAsAction(t *testing.T) {
	// the model put the tool name where action belongs
	dec := decision.Parse(`{"action":"getTableSchema","parameters":{"tableName":"Users"},"reason":"inspect"}`)

	require.Equal(t, decision.ActionAskClarification, dec.Action)
	assert.Contains(t, dec.AskClarification.Question, "tool name in the 'action' field")
}

func Test_Parse_NumberTruncation(t *testing.T) {
	dec := decision.Parse(`{"action":"call_tool","tool_name":"t","parameters":{"limit":7.9}}`)

	require.Equal(t, decision.ActionCallTool, dec.Action)
	assert.Equal(t, int32(7), dec.CallTool.Parameters["limit"].Any())
}

func Test_Parse_Total(t *testing.T) {
	// no input may panic or drop the turn
	tcases := []string{
		"{",
		"null",
		"true",
		"```json",
		"{\"action\": }",
		`{"action":"call_tool","tool_name":"t","parameters":{"obj":{"a":1},"arr":[1]}}`,
	}
	for _, raw := range tcases {
		dec := decision.Parse(raw)
		assert.NotEmpty(t, dec.Action, "input: %q", raw)
	}
}

func Test_RoundTrip(t *testing.T) {
	orig := decision.NewCallTool("getTableSchema", map[string]decision.Value{
		"tableName": decision.String("Users"),
		"limit":     decision.Number(10),
		"exact":     decision.Bool(false),
	}, "inspect columns")

	bs, err := json.Marshal(orig)
	require.NoError(t, err)

	parsed := decision.Parse(string(bs))
	require.Equal(t, decision.ActionCallTool, parsed.Action)
	assert.Equal(t, orig.CallTool.ToolName, parsed.CallTool.ToolName)
	assert.Equal(t, orig.CallTool.Reason, parsed.CallTool.Reason)
	assert.Equal(t, orig.CallTool.Parameters, parsed.CallTool.Parameters)
}

func Test_Value_JSON(t *testing.T) {
	bs, err := json.Marshal(map[string]decision.Value{
		"s": decision.String("x"),
		"n": decision.Number(3),
		"b": decision.Bool(true),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"x","n":3,"b":true}`, string(bs))
}
