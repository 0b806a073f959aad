// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persistence

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// CodeSchema marks a data table that does not match its schema.
const CodeSchema = "PERSIST_SCHEMA"

const schemaBase = "https://mudss13.dev/schemas/"

var compiled sync.Map // name#type -> *jschema.Schema

// GenerateSchema reflects a JSON Schema from the type of v.
func GenerateSchema(name, title string, v any) ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  true,
	}
	schema := r.Reflect(v)
	schema.ID = jsonschema.ID(schemaBase + name)
	schema.Title = title

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code(CodeSchema).With("schema", name).Wrapf(err, "marshal schema")
	}
	return data, nil
}

func compileSchema(name string, v any) (*jschema.Schema, error) {
	key := name + "#" + reflect.TypeOf(v).String()
	if sch, ok := compiled.Load(key); ok {
		return sch.(*jschema.Schema), nil
	}
	data, err := GenerateSchema(name, name, v)
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, oops.Code(CodeSchema).With("schema", name).Wrap(err)
	}
	c := jschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, oops.Code(CodeSchema).With("schema", name).Wrap(err)
	}
	sch, err := c.Compile(name)
	if err != nil {
		return nil, oops.Code(CodeSchema).With("schema", name).Wrap(err)
	}
	compiled.Store(key, sch)
	return sch, nil
}

// validateYAML checks a YAML document against the schema reflected from v.
// The document goes through JSON so numbers compare the way the schema
// expects.
func validateYAML(name string, data []byte, v any) error {
	sch, err := compileSchema(name, v)
	if err != nil {
		return err
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return oops.Code(CodeDecode).Wrap(err)
	}
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return oops.Code(CodeDecode).Wrapf(err, "document is not representable as JSON")
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return oops.Code(CodeDecode).Wrap(err)
	}
	if err := sch.Validate(doc); err != nil {
		return oops.Code(CodeSchema).With("schema", name).Wrap(err)
	}
	return nil
}
