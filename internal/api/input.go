package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed todo_input.schema.json
var todoInputSchemaJSON string

const todoInputSchemaURL = "https://priotodo.local/schema/todo_input.schema.json"

var todoInputSchema = jsonschema.MustCompileString(todoInputSchemaURL, todoInputSchemaJSON)

// maxBodyBytes caps POST bodies.
const maxBodyBytes = 1 << 20

// errInvalidInput marks a body whose JSON shape is wrong. It never reaches
// the store.
var errInvalidInput = errors.New("invalid input")

// todoInput is the wire shape of POST /api/todos once it passed the schema.
type todoInput struct {
	Text     string
	Priority json.Number
}

// decodeTodoInput reads and shape-checks a POST body. Any failure wraps
// errInvalidInput.
func decodeTodoInput(r io.Reader) (todoInput, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return todoInput{}, fmt.Errorf("%w: read body: %v", errInvalidInput, err)
	}

	// UseNumber keeps priorities exact past 2^53.
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return todoInput{}, fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return todoInput{}, fmt.Errorf("%w: trailing data after body", errInvalidInput)
	}
	if err := todoInputSchema.Validate(doc); err != nil {
		return todoInput{}, fmt.Errorf("%w: %v", errInvalidInput, err)
	}

	obj := doc.(map[string]any)
	return todoInput{
		Text:     obj["text"].(string),
		Priority: obj["priority"].(json.Number),
	}, nil
}
