package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const maxBodyBytes = 1 << 20

// FieldError is one validation failure, located by JSON pointer.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries every field failure of one request body.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		msgs = append(msgs, d.Path+": "+d.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Schema validates request bodies for one route method.
type Schema struct {
	name     string
	compiled *jsonschema.Schema
}

func mustSchema(name, src string) *Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return &Schema{name: name, compiled: c.MustCompile(name)}
}

// Parse validates data and decodes it into dst. Failures are *ValidationError.
func (s *Schema) Parse(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &ValidationError{Details: []FieldError{{Path: "", Message: "body must be valid JSON"}}}
	}
	if err := s.compiled.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &ValidationError{Details: leafErrors(ve, nil)}
		}
		return fmt.Errorf("validate %s: %w", s.name, err)
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &ValidationError{Details: []FieldError{{Path: "", Message: err.Error()}}}
	}
	return nil
}

// ParseReader reads a bounded body and calls Parse.
func (s *Schema) ParseReader(r io.Reader, dst any) error {
	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return s.Parse(data, dst)
}

// ParseValue validates an already-built value, such as query parameters.
func (s *Schema) ParseValue(v any, dst any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Parse(data, dst)
}

func leafErrors(ve *jsonschema.ValidationError, out []FieldError) []FieldError {
	if len(ve.Causes) == 0 {
		return append(out, FieldError{Path: ve.InstanceLocation, Message: ve.Message})
	}
	for _, c := range ve.Causes {
		out = leafErrors(c, out)
	}
	return out
}

const stringList = `{"type": "array", "items": {"type": "string"}}`

const recipeProperties = `{
	"title": {"type": "string", "minLength": 1},
	"description": {"type": "string"},
	"preparationTime": {"type": "string"},
	"complexity": {"type": "string"},
	"ingredients": ` + stringList + `,
	"instructions": ` + stringList + `,
	"image": {"type": "string"}
}`

const idObject = `{
	"type": "object",
	"required": ["id"],
	"properties": {"id": {"type": "string", "minLength": 1}}
}`

// /api/recipes
var recipesPostSchema = mustSchema("recipes-post.json", `{
	"type": "object",
	"required": ["title", "ingredients", "instructions"],
	"properties": `+recipeProperties+`
}`)

// /api/recipes/{id}
var (
	recipePutSchema    = mustSchema("recipe-put.json", `{"type": "object", "properties": `+recipeProperties+`}`)
	recipeDeleteSchema = mustSchema("recipe-delete.json", idObject)
)

// /api/recipes/recommend
var recommendPostSchema = mustSchema("recommend-post.json", `{
	"type": "object",
	"required": ["ingredients"],
	"properties": {
		"ingredients": {"type": "array", "minItems": 1, "items": {"type": "string"}},
		"complexity": {"enum": ["any", "easy", "medium", "hard"]},
		"prepTime": {"enum": ["any", "quick", "medium", "long"]}
	}
}`)

// /api/photos
var (
	photosPostSchema = mustSchema("photos-post.json", `{
		"type": "object",
		"required": ["imageId", "filename", "logId"],
		"properties": {
			"imageId": {"type": "string"},
			"filename": {"type": "string"},
			"logId": {"type": "string"},
			"metadata": {"type": "object"}
		}
	}`)
	photosPatchSchema = mustSchema("photos-patch.json", `{
		"type": "object",
		"required": ["id", "logId"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"logId": {"type": ["string", "null"]}
		}
	}`)
	photosDeleteSchema = mustSchema("photos-delete.json", idObject)
)
