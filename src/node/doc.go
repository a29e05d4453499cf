// Package node implements the reactive component of a murmur node.
//
// A Node is a single participant in a Maelstrom-style test harness. It does
// not open any network connection; the harness performs delivery, and the
// node's only transport is newline-delimited JSON envelopes on its standard
// streams. The Run loop reads one envelope at a time, feeds it to Step, and
// writes the reply, in strict sequence: no input is consumed before the
// previous reply has been written.
//
// Step is the protocol state machine. The states are implicit in the node's
// fields: uninitialized until Init assigns an identity, then accumulating
// broadcast values and topology facts. Protocol violations (a malformed
// record, an unsolicited reply, a request that requires initialization) are
// fatal and propagate out of Run; the process must not guess its way past
// them because message ordering and counters would become unverifiable.
package node
