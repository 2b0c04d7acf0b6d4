package phylo

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/evolbioinfo/gotree/io/newick"
	gotree "github.com/evolbioinfo/gotree/tree"
)

// ParseNewick reads one Newick tree from r. Branches without a length get
// NoLength, which fails any walk that reaches them.
func ParseNewick(r io.Reader) (*Tree, error) {
	gt, err := newick.NewParser(r).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse newick: %w", err)
	}
	return fromGotree(gt)
}

// ParseNewickString is ParseNewick over a string.
func ParseNewickString(s string) (*Tree, error) {
	return ParseNewick(strings.NewReader(s))
}

// LoadNewickFile reads a Newick tree from path.
func LoadNewickFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ParseNewick(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// fromGotree copies a gotree tree into an arena Tree, orienting every edge
// away from the gotree root. Node ids follow preorder.
func fromGotree(gt *gotree.Tree) (*Tree, error) {
	root := gt.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: newick tree has no root", ErrMalformedTree)
	}

	type pending struct {
		node   *gotree.Node
		prev   *gotree.Node
		length float64
		parent NodeID
	}

	var nodes []Node
	stack := []pending{{node: root, length: 0, parent: NoNode}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := NodeID(len(nodes))
		nodes = append(nodes, Node{Name: p.node.Name(), BranchLength: p.length})
		if p.parent != NoNode {
			nodes[p.parent].Children = append(nodes[p.parent].Children, id)
		}

		neigh, edges := p.node.Neigh(), p.node.Edges()
		var children []pending
		for i, nb := range neigh {
			if nb == p.prev {
				continue
			}
			children = append(children, pending{node: nb, prev: p.node, length: edges[i].Length(), parent: id})
		}
		if len(children) == 0 {
			nodes[id].Kind = KindLeaf
			continue
		}
		nodes[id].Kind = KindInternal
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return NewTree(nodes, 0)
}
