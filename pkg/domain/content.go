package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Content node type tags used in the compiled JSON.
const (
	NodeText                = "text"
	NodeExpression          = "expression"
	NodeConditional         = "conditional"
	NodeForLoop             = "for_loop"
	NodeJump                = "jump"
	NodePythonBlock         = "python_block"
	NodeRenderDirective     = "render_directive"
	NodeInput               = "input"
	NodeSetVar              = "set_var"
	NodeExpressionStatement = "expression_statement"
)

// ContentNode is one element of a passage body.
type ContentNode interface {
	Kind() string
}

// Command is a top-level statement run when a passage is entered.
type Command interface {
	Kind() string
}

// Text is literal prose.
type Text struct {
	Value string   `json:"value"`
	Tags  []string `json:"tags,omitempty"`
}

// Expression is an interpolation "{code}" or "{code:spec}".
type Expression struct {
	Code string   `json:"code"`
	Tags []string `json:"tags,omitempty"`
}

// Branch is one arm of a conditional. The else arm has Condition "True".
type Branch struct {
	Condition string   `json:"condition"`
	Content   Nodes    `json:"content"`
	Choices   []Choice `json:"choices,omitempty"`
}

// Conditional is an if / elif / else chain. The first truthy branch wins.
type Conditional struct {
	Branches []Branch `json:"branches"`
}

// ForLoop renders its body once per element of Collection.
type ForLoop struct {
	Variable   string   `json:"variable"`
	Collection string   `json:"collection"`
	Content    Nodes    `json:"content"`
	Choices    []Choice `json:"choices,omitempty"`
}

// Jump transfers control to another passage, discarding the rest of the body.
type Jump struct {
	Target string `json:"target"`
}

// PythonBlock is a multi-statement code block.
type PythonBlock struct {
	Code string `json:"code"`
}

// RenderDirective asks the frontend to draw a named component.
type RenderDirective struct {
	Name          string `json:"name"`
	Args          string `json:"args"`
	FrameworkHint string `json:"framework_hint,omitempty"`
}

// InputDirective asks the frontend for a named text value.
type InputDirective struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
}

// SetVar is a "~ var = expr" assignment.
type SetVar struct {
	Var        string `json:"var"`
	Expression string `json:"expression"`
}

// ExpressionStatement is a "~ expr" evaluated for its side effects.
type ExpressionStatement struct {
	Code string `json:"code"`
}

func (*Text) Kind() string                { return NodeText }
func (*Expression) Kind() string          { return NodeExpression }
func (*Conditional) Kind() string         { return NodeConditional }
func (*ForLoop) Kind() string             { return NodeForLoop }
func (*Jump) Kind() string                { return NodeJump }
func (*PythonBlock) Kind() string         { return NodePythonBlock }
func (*RenderDirective) Kind() string     { return NodeRenderDirective }
func (*InputDirective) Kind() string      { return NodeInput }
func (*SetVar) Kind() string              { return NodeSetVar }
func (*ExpressionStatement) Kind() string { return NodeExpressionStatement }

func marshalTagged(kind string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	tag, _ := json.Marshal(kind)
	buf.Write(tag)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (n Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return marshalTagged(NodeText, plain(n))
}

func (n Expression) MarshalJSON() ([]byte, error) {
	type plain Expression
	return marshalTagged(NodeExpression, plain(n))
}

func (n Conditional) MarshalJSON() ([]byte, error) {
	type plain Conditional
	return marshalTagged(NodeConditional, plain(n))
}

func (n ForLoop) MarshalJSON() ([]byte, error) {
	type plain ForLoop
	return marshalTagged(NodeForLoop, plain(n))
}

func (n Jump) MarshalJSON() ([]byte, error) {
	type plain Jump
	return marshalTagged(NodeJump, plain(n))
}

func (n PythonBlock) MarshalJSON() ([]byte, error) {
	type plain PythonBlock
	return marshalTagged(NodePythonBlock, plain(n))
}

func (n RenderDirective) MarshalJSON() ([]byte, error) {
	type plain RenderDirective
	return marshalTagged(NodeRenderDirective, plain(n))
}

func (n InputDirective) MarshalJSON() ([]byte, error) {
	type plain InputDirective
	return marshalTagged(NodeInput, plain(n))
}

func (n SetVar) MarshalJSON() ([]byte, error) {
	type plain SetVar
	return marshalTagged(NodeSetVar, plain(n))
}

func (n ExpressionStatement) MarshalJSON() ([]byte, error) {
	type plain ExpressionStatement
	return marshalTagged(NodeExpressionStatement, plain(n))
}

func newNode(kind string) (ContentNode, error) {
	switch kind {
	case NodeText:
		return &Text{}, nil
	case NodeExpression:
		return &Expression{}, nil
	case NodeConditional:
		return &Conditional{}, nil
	case NodeForLoop:
		return &ForLoop{}, nil
	case NodeJump:
		return &Jump{}, nil
	case NodePythonBlock:
		return &PythonBlock{}, nil
	case NodeRenderDirective:
		return &RenderDirective{}, nil
	case NodeInput:
		return &InputDirective{}, nil
	case NodeSetVar:
		return &SetVar{}, nil
	case NodeExpressionStatement:
		return &ExpressionStatement{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, kind)
}

func decodeTagged(raw json.RawMessage) (ContentNode, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	n, err := newNode(head.Type)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, n); err != nil {
		return nil, fmt.Errorf("decode %s node: %w", head.Type, err)
	}
	return n, nil
}

// Nodes is a passage or block body.
type Nodes []ContentNode

// UnmarshalJSON decodes each element by its "type" tag.
func (ns *Nodes) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	out := make(Nodes, 0, len(raws))
	for _, raw := range raws {
		n, err := decodeTagged(raw)
		if err != nil {
			return err
		}
		out = append(out, n)
	}
	*ns = out
	return nil
}

// Commands is a passage's execute list.
type Commands []Command

// UnmarshalJSON decodes set_var, expression_statement and python_block entries.
func (cs *Commands) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	out := make(Commands, 0, len(raws))
	for _, raw := range raws {
		n, err := decodeTagged(raw)
		if err != nil {
			return err
		}
		switch n.(type) {
		case *SetVar, *PythonBlock, *ExpressionStatement:
			out = append(out, n)
		default:
			return fmt.Errorf("%w: %q is not a command", ErrUnknownNodeType, n.Kind())
		}
	}
	*cs = out
	return nil
}
