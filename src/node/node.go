package node

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/distworks/murmur/src/wire"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrUninitialized is returned when a message requiring the node's identity
// arrives before Init has assigned one.
var ErrUninitialized = errors.New("node has not received init")

// UnexpectedReplyError is returned when the node receives a reply it can
// never have solicited. It signals a misbehaving harness or peer, so there is
// no local recovery.
type UnexpectedReplyError struct {
	Kind string
}

func (e *UnexpectedReplyError) Error() string {
	return fmt.Sprintf("node received unsolicited %s message", e.Kind)
}

// Node is the protocol state machine for one harness participant. It holds
// the identity assigned by Init, the counter numbering originated messages,
// the values accumulated through Broadcast, and the last Topology received.
// State lives for the process lifetime only.
type Node struct {
	id       string
	msgID    int
	messages []int
	topology map[string][]string

	// coreLock serializes Step against stats readers. The protocol path
	// itself is single-threaded.
	coreLock sync.Mutex

	start  time.Time
	logger *logrus.Entry
}

// NewNode returns an uninitialized Node. It replies to nothing until the
// harness sends Init.
func NewNode(logger *logrus.Entry) *Node {
	return &Node{
		start:  time.Now(),
		logger: logger,
	}
}

// Step feeds one inbound envelope through the state machine. It returns the
// reply to emit, nil when the message calls for none, or an error when the
// message violates the protocol. State mutation and reply construction happen
// together, so the message counter is claimed exactly once per reply.
func (n *Node) Step(input *wire.Envelope) (*wire.Envelope, error) {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	n.logger.WithFields(logrus.Fields{
		"src":  input.Src,
		"type": input.Body.Payload.Type(),
	}).Debug("Processing message")

	switch p := input.Body.Payload.(type) {
	case *wire.Init:
		if n.id != "" {
			n.logger.WithField("node_id", n.id).Warn("Reinitializing node")
		}
		n.id = p.NodeID
		n.logger.WithFields(logrus.Fields{
			"node_id":  p.NodeID,
			"node_ids": len(p.NodeIDs),
		}).Debug("Node initialized")
		return n.reply(input, &wire.InitOk{})

	case *wire.InitOk:
		return nil, &UnexpectedReplyError{Kind: wire.TypeInitOk}

	case *wire.Echo:
		return n.reply(input, &wire.EchoOk{Echo: p.Echo})

	case *wire.EchoOk:
		return nil, nil

	case *wire.Generate:
		if n.id == "" {
			return nil, ErrUninitialized
		}
		// The node id is unique across the cluster and msgID is unique
		// within the node, so the pair never repeats. The counter value
		// here is the same one the reply claims.
		uid := fmt.Sprintf("%s#%d", n.id, n.msgID)
		return n.reply(input, &wire.GenerateOk{ID: uid})

	case *wire.GenerateOk:
		return nil, &UnexpectedReplyError{Kind: wire.TypeGenerateOk}

	case *wire.Broadcast:
		n.messages = append(n.messages, p.Message)
		return n.reply(input, &wire.BroadcastOk{})

	case *wire.BroadcastOk:
		return nil, nil

	case *wire.Read:
		// Copy so later broadcasts cannot mutate a reply already handed out.
		snapshot := make([]int, len(n.messages))
		copy(snapshot, n.messages)
		return n.reply(input, &wire.ReadOk{Messages: snapshot})

	case *wire.ReadOk:
		return nil, nil

	case *wire.Topology:
		n.topology = p.Topology
		return n.reply(input, &wire.TopologyOk{})

	case *wire.TopologyOk:
		return nil, nil
	}

	return nil, errors.Errorf("no transition for payload type %s", input.Body.Payload.Type())
}

// reply builds the response envelope for a request and claims the next
// message ID. Every message this node originates goes through here, so the
// counter never skips or repeats.
func (n *Node) reply(req *wire.Envelope, payload wire.Payload) (*wire.Envelope, error) {
	if n.id == "" {
		return nil, ErrUninitialized
	}

	id := n.msgID
	n.msgID++

	return &wire.Envelope{
		Src:  n.id,
		Dest: req.Src,
		Body: wire.Body{
			MsgID:     &id,
			InReplyTo: req.Body.MsgID,
			Payload:   payload,
		},
	}, nil
}

// Run drives the node from an input stream until it is exhausted. Each line
// holds one JSON envelope. Replies are written to out, newline-terminated,
// before the next line is read; the harness depends on in-order, promptly
// visible output. The first malformed record, protocol violation, or write
// failure aborts the run. End of input is normal termination.
func (n *Node) Run(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		env, err := wire.Decode(scanner.Bytes())
		if err != nil {
			return err
		}

		reply, err := n.Step(env)
		if err != nil {
			return err
		}

		if reply == nil {
			continue
		}

		if err := wire.Encode(out, reply); err != nil {
			return err
		}

		n.logger.WithFields(logrus.Fields{
			"dest": reply.Dest,
			"type": reply.Body.Payload.Type(),
		}).Debug("Sent reply")
	}

	return errors.Wrap(scanner.Err(), "reading input")
}

// GetStats returns a snapshot of the node's counters for the stats service.
func (n *Node) GetStats() map[string]string {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	timeElapsed := time.Since(n.start)

	s := map[string]string{
		"node_id":         n.id,
		"next_msg_id":     strconv.Itoa(n.msgID),
		"stored_messages": strconv.Itoa(len(n.messages)),
		"known_peers":     strconv.Itoa(len(n.topology)),
		"uptime":          timeElapsed.String(),
	}

	return s
}
