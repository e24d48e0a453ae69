// Package decision turns raw model output into one of three typed decisions:
// call a tool, answer the user, or ask for clarification.
package decision

import (
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Action discriminates the decision variants.
type Action string

const (
	ActionCallTool         Action = "call_tool"
	ActionAnswerUser       Action = "answer_user"
	ActionAskClarification Action = "ask_clarification"
)

// CallTool requests one tool invocation.
type CallTool struct {
	ToolName   string
	Parameters map[string]Value
	Reason     string
}

// AnswerUser ends the conversation with a final answer.
type AnswerUser struct {
	Response string
}

// AskClarification ends the conversation with a question back to the user.
type AskClarification struct {
	Question string
}

// Decision is a tagged variant with exactly one active case.
// Use the New* constructors; a zero Decision is invalid.
type Decision struct {
	Action           Action
	CallTool         *CallTool
	AnswerUser       *AnswerUser
	AskClarification *AskClarification
}

func NewCallTool(toolName string, params map[string]Value, reason string) Decision {
	if params == nil {
		params = map[string]Value{}
	}
	return Decision{
		Action: ActionCallTool,
		CallTool: &CallTool{
			ToolName:   toolName,
			Parameters: params,
			Reason:     reason,
		},
	}
}

func NewAnswerUser(response string) Decision {
	return Decision{
		Action:     ActionAnswerUser,
		AnswerUser: &AnswerUser{Response: response},
	}
}

func NewAskClarification(question string) Decision {
	return Decision{
		Action:           ActionAskClarification,
		AskClarification: &AskClarification{Question: question},
	}
}

// Envelope is the wire shape of a decision in model output.
type Envelope struct {
	Action     string           `json:"action" jsonschema:"title=action,description=One of call_tool | answer_user | ask_clarification.,enum=call_tool,enum=answer_user,enum=ask_clarification"`
	ToolName   string           `json:"tool_name,omitempty" jsonschema:"title=tool_name,description=Exact name of the tool to call. Required when action is call_tool."`
	Parameters map[string]Value `json:"parameters,omitempty" jsonschema:"title=parameters,description=Tool parameters as an object of scalar values."`
	Reason     string           `json:"reason,omitempty" jsonschema:"title=reason,description=Short reason for calling the tool."`
	Response   string           `json:"response,omitempty" jsonschema:"title=response,description=Final answer for the user. Required when action is answer_user."`
	Question   string           `json:"question,omitempty" jsonschema:"title=question,description=Clarifying question for the user. Required when action is ask_clarification."`
}

// MarshalJSON serializes the decision in its wire shape.
func (d Decision) MarshalJSON() ([]byte, error) {
	env := Envelope{Action: string(d.Action)}
	switch d.Action {
	case ActionCallTool:
		if d.CallTool == nil {
			return nil, errors.New("call_tool decision without payload")
		}
		env.ToolName = d.CallTool.ToolName
		env.Parameters = d.CallTool.Parameters
		env.Reason = d.CallTool.Reason
	case ActionAnswerUser:
		if d.AnswerUser == nil {
			return nil, errors.New("answer_user decision without payload")
		}
		env.Response = d.AnswerUser.Response
	case ActionAskClarification:
		if d.AskClarification == nil {
			return nil, errors.New("ask_clarification decision without payload")
		}
		env.Question = d.AskClarification.Question
	default:
		return nil, errors.Newf("unknown action: %s", d.Action)
	}
	return json.Marshal(env)
}

// Kind tags the scalar parameter union.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindBool
)

// Value is a closed scalar union for tool parameters: string, number, or
// boolean. Numbers are truncated to 32-bit integers, matching the behavior
// of the tool server protocol.
type Value struct {
	kind Kind
	str  string
	num  int32
	b    bool
}

func String(s string) Value {
	return Value{kind: KindString, str: s}
}

func Number(n int32) Value {
	return Value{kind: KindNumber, num: n}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func (v Value) Kind() Kind {
	return v.kind
}

// Any returns the native Go scalar.
func (v Value) Any() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return v.str
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatInt(int64(v.num), 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

// MarshalJSON emits the native scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON accepts any JSON value: strings, numbers, and booleans map
// to the corresponding scalar; numbers are truncated to int32; anything
// else is kept as its raw JSON text so parsing stays total.
func (v *Value) UnmarshalJSON(bs []byte) error {
	if len(bs) == 0 {
		*v = String("")
		return nil
	}
	switch bs[0] {
	case '"':
		var s string
		if err := json.Unmarshal(bs, &s); err != nil {
			return errors.WithStack(err)
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(bs, &b); err != nil {
			return errors.WithStack(err)
		}
		*v = Bool(b)
	case 'n':
		*v = String("")
	case '{', '[':
		*v = String(string(bs))
	default:
		var f float64
		if err := json.Unmarshal(bs, &f); err != nil {
			return errors.WithStack(err)
		}
		*v = Number(int32(f))
	}
	return nil
}
