package wire

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecodeInit(t *testing.T) {
	line := `{"src":"c1","dest":"n1","body":{"msg_id":1,"type":"init","node_id":"n1","node_ids":["n1","n2"]}}`

	env, err := Decode([]byte(line))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if env.Src != "c1" {
		t.Fatalf("src should be c1, not %s", env.Src)
	}
	if env.Dest != "n1" {
		t.Fatalf("dest should be n1, not %s", env.Dest)
	}
	if env.Body.MsgID == nil || *env.Body.MsgID != 1 {
		t.Fatalf("msg_id should be 1, not %v", env.Body.MsgID)
	}
	if env.Body.InReplyTo != nil {
		t.Fatalf("in_reply_to should be absent, not %v", *env.Body.InReplyTo)
	}

	init, ok := env.Body.Payload.(*Init)
	if !ok {
		t.Fatalf("payload should be *Init, not %T", env.Body.Payload)
	}
	if init.NodeID != "n1" {
		t.Fatalf("node_id should be n1, not %s", init.NodeID)
	}
	if len(init.NodeIDs) != 2 || init.NodeIDs[0] != "n1" || init.NodeIDs[1] != "n2" {
		t.Fatalf("node_ids not parsed correctly: %v", init.NodeIDs)
	}
}

func TestDecodeTopology(t *testing.T) {
	line := `{"src":"c1","dest":"n1","body":{"msg_id":4,"type":"topology","topology":{"n1":["n2","n3"],"n2":["n1"]}}}`

	env, err := Decode([]byte(line))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	topo, ok := env.Body.Payload.(*Topology)
	if !ok {
		t.Fatalf("payload should be *Topology, not %T", env.Body.Payload)
	}
	if len(topo.Topology) != 2 {
		t.Fatalf("topology should have 2 entries, not %d", len(topo.Topology))
	}
	if n := topo.Topology["n1"]; len(n) != 2 || n[0] != "n2" || n[1] != "n3" {
		t.Fatalf("neighbors of n1 not parsed correctly: %v", n)
	}
}

func TestEncodeFlattensPayload(t *testing.T) {
	msgID := 1
	inReplyTo := 2

	env := &Envelope{
		Src:  "n1",
		Dest: "c1",
		Body: Body{
			MsgID:     &msgID,
			InReplyTo: &inReplyTo,
			Payload:   &EchoOk{Echo: "hi"},
		},
	}

	buf := bytes.Buffer{}
	if err := Encode(&buf, env); err != nil {
		t.Fatalf("err: %v", err)
	}

	// Body keys are emitted in sorted order, so the wire form is stable.
	expected := `{"src":"n1","dest":"c1","body":{"echo":"hi","in_reply_to":2,"msg_id":1,"type":"echo_ok"}}` + "\n"
	if buf.String() != expected {
		t.Fatalf("encoded envelope should be\n%s, not\n%s", expected, buf.String())
	}
}

func TestEncodeOmitsUnsetIDs(t *testing.T) {
	env := &Envelope{
		Src:  "n1",
		Dest: "c1",
		Body: Body{
			Payload: &InitOk{},
		},
	}

	buf := bytes.Buffer{}
	if err := Encode(&buf, env); err != nil {
		t.Fatalf("err: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "msg_id") {
		t.Fatalf("unset msg_id should be omitted entirely: %s", out)
	}
	if strings.Contains(out, "in_reply_to") {
		t.Fatalf("unset in_reply_to should be omitted entirely: %s", out)
	}
	if strings.Contains(out, "null") {
		t.Fatalf("optional fields must never encode as null: %s", out)
	}
}

func TestRoundTripPreservesCorrelation(t *testing.T) {
	line := `{"src":"c1","dest":"n1","body":{"msg_id":7,"in_reply_to":3,"type":"echo_ok","echo":"back"}}`

	env, err := Decode([]byte(line))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	buf := bytes.Buffer{}
	if err := Encode(&buf, env); err != nil {
		t.Fatalf("err: %v", err)
	}

	env2, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if *env2.Body.MsgID != 7 || *env2.Body.InReplyTo != 3 {
		t.Fatalf("correlation ids should survive a round trip: %v %v",
			env2.Body.MsgID, env2.Body.InReplyTo)
	}
	if echo := env2.Body.Payload.(*EchoOk).Echo; echo != "back" {
		t.Fatalf("echo should be back, not %s", echo)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	line := `{"src":"c1","dest":"n1","body":{"msg_id":1,"type":"gossip"}}`

	_, err := Decode([]byte(line))
	if err == nil {
		t.Fatal("decoding an unknown type tag should fail")
	}

	unknownErr := &UnknownPayloadTypeError{}
	if !errors.As(err, &unknownErr) {
		t.Fatalf("err should be UnknownPayloadTypeError, not %v", err)
	}
	if unknownErr.Tag != "gossip" {
		t.Fatalf("tag should be gossip, not %s", unknownErr.Tag)
	}
}

func TestDecodeMissingRequiredField(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"init without node_id", `{"src":"c1","dest":"n1","body":{"msg_id":1,"type":"init","node_ids":["n1"]}}`},
		{"echo without echo", `{"src":"c1","dest":"n1","body":{"msg_id":1,"type":"echo"}}`},
		{"broadcast without message", `{"src":"c1","dest":"n1","body":{"msg_id":1,"type":"broadcast"}}`},
		{"topology without topology", `{"src":"c1","dest":"n1","body":{"msg_id":1,"type":"topology"}}`},
	}

	for _, c := range cases {
		if _, err := Decode([]byte(c.line)); err == nil {
			t.Fatalf("%s should fail to decode", c.name)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"not json", `this is not json`},
		{"no body", `{"src":"c1","dest":"n1"}`},
		{"null body", `{"src":"c1","dest":"n1","body":null}`},
		{"body without type", `{"src":"c1","dest":"n1","body":{"msg_id":1}}`},
		{"string msg_id", `{"src":"c1","dest":"n1","body":{"msg_id":"one","type":"read"}}`},
	}

	for _, c := range cases {
		if _, err := Decode([]byte(c.line)); err == nil {
			t.Fatalf("%s should fail to decode", c.name)
		}
	}
}
