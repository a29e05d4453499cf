package wire

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Envelope is one directed message between two nodes. The harness owns
// routing; a node only ever reads envelopes addressed to it and writes
// envelopes originating from it.
type Envelope struct {
	Src  string `json:"src"`
	Dest string `json:"dest"`
	Body Body   `json:"body"`
}

// Body carries the correlation IDs and the payload of a message. On the wire
// the payload's fields sit at the same level as msg_id and in_reply_to, with
// a "type" tag discriminating the variant. MsgID is set on messages this node
// originates; InReplyTo is set iff the body answers a request. Both are
// omitted entirely from the encoding when nil, never written as null.
type Body struct {
	MsgID     *int
	InReplyTo *int
	Payload   Payload
}

// UnknownPayloadTypeError is returned when a body carries a type tag outside
// the protocol's closed set.
type UnknownPayloadTypeError struct {
	Tag string
}

func (e *UnknownPayloadTypeError) Error() string {
	return fmt.Sprintf("unknown payload type %q", e.Tag)
}

// Decode parses one wire record into an Envelope.
func Decode(data []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, errors.Wrap(err, "malformed input")
	}
	if env.Body.Payload == nil {
		return nil, errors.New("malformed input: envelope has no body")
	}
	return env, nil
}

// Encode writes the envelope's wire form to w, terminated by a newline. When
// w is an unbuffered stream the record is observable as soon as Encode
// returns, which the harness relies on.
func Encode(w io.Writer, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "encoding envelope")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "writing envelope")
	}
	return nil
}

// MarshalJSON flattens the payload's fields next to msg_id and in_reply_to
// and inserts the type tag.
func (b Body) MarshalJSON() ([]byte, error) {
	if b.Payload == nil {
		return nil, errors.New("body has no payload")
	}

	raw, err := json.Marshal(b.Payload)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	fields["type"] = json.RawMessage(strconv.Quote(b.Payload.Type()))
	if b.MsgID != nil {
		fields["msg_id"] = json.RawMessage(strconv.Itoa(*b.MsgID))
	}
	if b.InReplyTo != nil {
		fields["in_reply_to"] = json.RawMessage(strconv.Itoa(*b.InReplyTo))
	}

	return json.Marshal(fields)
}

// UnmarshalJSON reads the type tag first, then decodes the variant's fields
// from the same level of the record.
func (b *Body) UnmarshalJSON(data []byte) error {
	var head struct {
		Type      string `json:"type"`
		MsgID     *int   `json:"msg_id"`
		InReplyTo *int   `json:"in_reply_to"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Type == "" {
		return errors.New("body has no type tag")
	}

	payload, err := decodePayload(head.Type, data)
	if err != nil {
		return err
	}

	b.MsgID = head.MsgID
	b.InReplyTo = head.InReplyTo
	b.Payload = payload

	return nil
}

func decodePayload(tag string, data []byte) (Payload, error) {
	payload := newPayload(tag)
	if payload == nil {
		return nil, &UnknownPayloadTypeError{Tag: tag}
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	for _, f := range requiredFields[tag] {
		if _, ok := fields[f]; !ok {
			return nil, errors.Errorf("%s payload is missing the %q field", tag, f)
		}
	}

	if err := json.Unmarshal(data, payload); err != nil {
		return nil, errors.Wrapf(err, "decoding %s payload", tag)
	}

	return payload, nil
}
