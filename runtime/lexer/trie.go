package lexer

import "unicode/utf8"

// trieNode is one character step in the fixed-token graph. Terminal nodes
// carry the token type their path spells.
type trieNode struct {
	children map[rune]*trieNode
	terminal TokenType
	isLeaf   bool // true when a token type ends here
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// insert adds seq as a path ending in t. If another type already ends at the
// same node, that type is returned with ok=false.
func (n *trieNode) insert(seq string, t TokenType) (existing TokenType, ok bool) {
	node := n
	for _, r := range seq {
		child, found := node.children[r]
		if !found {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	if node.isLeaf && node.terminal != t {
		return node.terminal, false
	}
	node.terminal = t
	node.isLeaf = true
	return t, true
}

// longest walks input from its start and returns the deepest terminal seen
// plus its byte length. size is 0 when no token path matches.
func (n *trieNode) longest(input string) (t TokenType, size int) {
	node := n
	offset := 0
	t = ILLEGAL
	for offset < len(input) {
		r, width := utf8.DecodeRuneInString(input[offset:])
		child, found := node.children[r]
		if !found {
			break
		}
		offset += width
		node = child
		if node.isLeaf {
			t, size = node.terminal, offset
		}
	}
	return t, size
}
