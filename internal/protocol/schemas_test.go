package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	reject := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err == nil {
			t.Fatalf("expected validation error")
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	envelopeSchema := compile("envelope.schema.json")
	errorSchema := compile("error.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "username":"alice",
	  "map_id":"downtown",
	  "role_id":"worker"
	}`), &hello)
	validate(helloSchema, hello)

	var badHello any
	_ = json.Unmarshal([]byte(`{"type":"HELLO","protocol_version":"1.0"}`), &badHello)
	reject(helloSchema, badHello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"s-1",
	  "user_id":"u_alice",
	  "map_id":"downtown",
	  "room_id":"room-1",
	  "catalogs":{
	    "items_digest":"deadbeef",
	    "shops_digest":"deadbeef",
	    "jobs_digest":"deadbeef",
	    "spawns_digest":"deadbeef"
	  }
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var env any
	_ = json.Unmarshal([]byte(`{
	  "type":"economy:deposit",
	  "payload":{"amount":100.0,"reason":"payday"}
	}`), &env)
	validate(envelopeSchema, env)

	var badEnv any
	_ = json.Unmarshal([]byte(`{"type":"HELLO"}`), &badEnv)
	reject(envelopeSchema, badEnv)

	var errPayload any
	_ = json.Unmarshal([]byte(`{"code":"E_NO_FUNDS","message":"insufficient funds"}`), &errPayload)
	validate(errorSchema, errPayload)

	var badErr any
	_ = json.Unmarshal([]byte(`{"code":"E_NOPE","message":"x"}`), &badErr)
	reject(errorSchema, badErr)
}
