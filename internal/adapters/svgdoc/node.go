package svgdoc

import (
	"html"
	"strings"
)

// NodeKind tells elements apart from markup that is carried through verbatim.
type NodeKind int

const (
	DocumentNode NodeKind = iota
	ElementNode
	// RawNode holds text, comments, CDATA, DOCTYPE and processing
	// instructions exactly as they appeared in the input.
	RawNode
)

// Attr is one attribute of an element. Value is kept in its escaped form.
type Attr struct {
	Name  string
	Value string
	Quote byte // '"' or '\'', 0 for an attribute without a value
}

// Node is one item of the document tree.
type Node struct {
	Kind     NodeKind
	Name     string
	Attrs    []Attr
	Children []*Node
	Parent   *Node
	Raw      []byte

	void bool
}

// Attr returns the unescaped value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return html.UnescapeString(a.Value), true
		}
	}
	return "", false
}

// ID returns the element's id attribute, or "".
func (n *Node) ID() string {
	id, _ := n.Attr("id")
	return id
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `"`, "&quot;")

// SetAttr sets the named attribute, appending it when missing.
func (n *Node) SetAttr(name, value string) {
	v := attrEscaper.Replace(value)
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = v
			n.Attrs[i].Quote = '"'
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: v, Quote: '"'})
}

// IsPath reports whether the node is an element carrying path data.
func (n *Node) IsPath() bool {
	if n.Kind != ElementNode {
		return false
	}
	_, ok := n.Attr("d")
	return ok
}

// Attached reports whether n is still part of a tree rooted at a document.
func (n *Node) Attached() bool {
	for p := n; p != nil; p = p.Parent {
		if p.Kind == DocumentNode {
			return true
		}
	}
	return false
}

// walk visits n and its descendants depth-first in pre-order. Returning
// false from fn skips the node's children.
func (n *Node) walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn)
	}
}

func (n *Node) appendChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}
