package wire

// Wire values of the type tag. The set is closed: adding a message kind means
// adding its tag here, its struct below, a newPayload case, and a transition
// in the node's dispatch.
const (
	TypeInit        = "init"
	TypeInitOk      = "init_ok"
	TypeEcho        = "echo"
	TypeEchoOk      = "echo_ok"
	TypeGenerate    = "generate"
	TypeGenerateOk  = "generate_ok"
	TypeBroadcast   = "broadcast"
	TypeBroadcastOk = "broadcast_ok"
	TypeRead        = "read"
	TypeReadOk      = "read_ok"
	TypeTopology    = "topology"
	TypeTopologyOk  = "topology_ok"
)

// Payload is the content of a Body. Each implementation corresponds to one
// type tag.
type Payload interface {
	// Type returns the wire tag discriminating the variant.
	Type() string
}

// Init assigns the node its identifier and announces cluster membership. The
// harness sends it exactly once, before any other message.
type Init struct {
	NodeID  string   `json:"node_id"`
	NodeIDs []string `json:"node_ids"`
}

// InitOk acknowledges an Init.
type InitOk struct{}

// Echo requests that its string be sent back verbatim.
type Echo struct {
	Echo string `json:"echo"`
}

// EchoOk answers an Echo with the same string.
type EchoOk struct {
	Echo string `json:"echo"`
}

// Generate requests a cluster-unique identifier.
type Generate struct{}

// GenerateOk carries the generated identifier.
type GenerateOk struct {
	ID string `json:"id"`
}

// Broadcast submits one value for the node to store.
type Broadcast struct {
	Message int `json:"message"`
}

// BroadcastOk acknowledges a Broadcast.
type BroadcastOk struct{}

// Read requests all values the node has stored.
type Read struct{}

// ReadOk answers a Read with the stored values in arrival order.
type ReadOk struct {
	Messages []int `json:"messages"`
}

// Topology tells the node who its neighbors are. The mapping covers every
// node in the cluster, not only the recipient.
type Topology struct {
	Topology map[string][]string `json:"topology"`
}

// TopologyOk acknowledges a Topology.
type TopologyOk struct{}

func (Init) Type() string        { return TypeInit }
func (InitOk) Type() string      { return TypeInitOk }
func (Echo) Type() string        { return TypeEcho }
func (EchoOk) Type() string      { return TypeEchoOk }
func (Generate) Type() string    { return TypeGenerate }
func (GenerateOk) Type() string  { return TypeGenerateOk }
func (Broadcast) Type() string   { return TypeBroadcast }
func (BroadcastOk) Type() string { return TypeBroadcastOk }
func (Read) Type() string        { return TypeRead }
func (ReadOk) Type() string      { return TypeReadOk }
func (Topology) Type() string    { return TypeTopology }
func (TopologyOk) Type() string  { return TypeTopologyOk }

// requiredFields lists the wire fields a variant cannot omit. A record
// missing one of them is a decode failure, not a zero value.
var requiredFields = map[string][]string{
	TypeInit:       {"node_id", "node_ids"},
	TypeEcho:       {"echo"},
	TypeEchoOk:     {"echo"},
	TypeGenerateOk: {"id"},
	TypeBroadcast:  {"message"},
	TypeReadOk:     {"messages"},
	TypeTopology:   {"topology"},
}

func newPayload(tag string) Payload {
	switch tag {
	case TypeInit:
		return &Init{}
	case TypeInitOk:
		return &InitOk{}
	case TypeEcho:
		return &Echo{}
	case TypeEchoOk:
		return &EchoOk{}
	case TypeGenerate:
		return &Generate{}
	case TypeGenerateOk:
		return &GenerateOk{}
	case TypeBroadcast:
		return &Broadcast{}
	case TypeBroadcastOk:
		return &BroadcastOk{}
	case TypeRead:
		return &Read{}
	case TypeReadOk:
		return &ReadOk{}
	case TypeTopology:
		return &Topology{}
	case TypeTopologyOk:
		return &TopologyOk{}
	}
	return nil
}
