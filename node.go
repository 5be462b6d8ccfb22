package cs2

import "iter"

// NodeKind enumerates the three shapes a structural [Node] can take.
type NodeKind int8

const (
	// Scalar is a raw textual value such as "BR 01", "-1" or "0x4001".
	Scalar NodeKind = iota
	// Block is a fixed-size binary payload, written as hex byte pairs.
	Block
	// Record is an ordered group of keyed child nodes. Keys may repeat;
	// repeated keys form an implicit list in source order.
	Record
)

func (k NodeKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Block:
		return "block"
	case Record:
		return "record"
	default:
		panic("unknown node kind")
	}
}

// Entry is one keyed child of a [Record] node.
type Entry struct {
	Key  string
	Node *Node
}

// Node is the untyped structural representation of one CS2 fragment. A Node
// is exactly one of its three kinds; only the field matching [Node.Kind] is
// meaningful. Sibling order in Entries is preserved verbatim through parse
// and render, which is what makes round-trips byte-exact.
type Node struct {
	Kind    NodeKind
	Value   string  // set for Scalar
	Bytes   []byte  // set for Block
	Entries []Entry // set for Record
}

// NewScalar returns a Scalar node holding the given text.
func NewScalar(value string) *Node {
	return &Node{Kind: Scalar, Value: value}
}

// NewBlock returns a Block node holding the given bytes.
func NewBlock(data []byte) *Node {
	return &Node{Kind: Block, Bytes: data}
}

// NewRecord returns a Record node with the given entries.
func NewRecord(entries ...Entry) *Node {
	return &Node{Kind: Record, Entries: entries}
}

// Add appends a child entry. It panics if n is not a Record.
func (n *Node) Add(key string, child *Node) {
	if n.Kind != Record {
		panic("cs2: Add on a non-record node")
	}
	n.Entries = append(n.Entries, Entry{Key: key, Node: child})
}

// AddScalar appends a Scalar child entry.
func (n *Node) AddScalar(key, value string) {
	n.Add(key, NewScalar(value))
}

// Get returns the last child with the given key. Later occurrences win so
// that a repeated key behaves like repeated assignment for non-list fields.
func (n *Node) Get(key string) (*Node, bool) {
	for i := len(n.Entries) - 1; i >= 0; i-- {
		if n.Entries[i].Key == key {
			return n.Entries[i].Node, true
		}
	}
	return nil, false
}

// All iterates over every child with the given key, in source order.
func (n *Node) All(key string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, e := range n.Entries {
			if e.Key == key && !yield(e.Node) {
				return
			}
		}
	}
}
