// Package svgdoc reads SVG documents into a light element tree, finds the
// path-bearing elements in a selection scope and writes the tree back with
// unrelated markup left in place.
package svgdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/okian/despeckle/internal/domain/dedupe"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/xml"
)

// Document is a parsed SVG document.
type Document struct {
	root *Node
}

// Parse reads an SVG document from r.
func Parse(r io.Reader) (*Document, error) {
	l := xml.NewLexer(parse.NewInput(r))
	root := &Node{Kind: DocumentNode}
	cur := root
	var pi *Node

	for {
		tt, data := l.Next()
		switch tt {
		case xml.ErrorToken:
			if err := l.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
			}
			if cur != root {
				return nil, fmt.Errorf("%w: element <%s> is never closed", ErrMalformedDocument, cur.Name)
			}
			return &Document{root: root}, nil

		case xml.StartTagToken:
			n := &Node{Kind: ElementNode, Name: string(l.Text())}
			cur.appendChild(n)
			cur = n

		case xml.StartTagPIToken:
			pi = &Node{Kind: RawNode, Raw: append([]byte("<?"), l.Text()...)}

		case xml.AttributeToken:
			a := attr(l.Text(), l.AttrVal())
			if pi != nil {
				var b bytes.Buffer
				writeAttr(&b, a)
				pi.Raw = append(pi.Raw, b.Bytes()...)
				continue
			}
			cur.Attrs = append(cur.Attrs, a)

		case xml.StartTagCloseToken:

		case xml.StartTagCloseVoidToken:
			cur.void = true
			cur = cur.Parent

		case xml.StartTagClosePIToken:
			if pi != nil {
				pi.Raw = append(pi.Raw, "?>"...)
				cur.appendChild(pi)
				pi = nil
			}

		case xml.EndTagToken:
			name := string(endTagName(l.Text(), data))
			if cur == root || cur.Name != name {
				return nil, fmt.Errorf("%w: unexpected </%s>", ErrMalformedDocument, name)
			}
			cur = cur.Parent

		default:
			cur.appendChild(&Node{Kind: RawNode, Raw: append([]byte(nil), data...)})
		}
	}
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

func attr(name, val []byte) Attr {
	a := Attr{Name: string(name)}
	switch {
	case len(val) == 0:
	case len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0]:
		a.Quote = val[0]
		a.Value = string(val[1 : len(val)-1])
	default:
		a.Quote = '"'
		a.Value = string(val)
	}
	return a
}

func endTagName(text, data []byte) []byte {
	if len(text) > 0 {
		return text
	}
	data = bytes.TrimPrefix(data, []byte("</"))
	data = bytes.TrimSuffix(data, []byte(">"))
	return bytes.TrimSpace(data)
}

// Root returns the document node.
func (d *Document) Root() *Node { return d.root }

// ByID returns the first element whose id is id, or nil.
func (d *Document) ByID(id string) *Node {
	var found *Node
	d.root.walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Kind == ElementNode && n.ID() == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Collect returns the path-bearing elements in scope, depth-first in
// pre-order. An empty scope means the whole document; otherwise the subtrees
// of the elements with the given ids are walked in selection order and a node
// reached through several selections is listed once. Ids that match no
// element are returned in missing.
func (d *Document) Collect(scope []string) (worklist []*Node, missing []string) {
	visit := func(n *Node) bool {
		if n.IsPath() {
			worklist = append(worklist, n)
		}
		return true
	}
	if len(scope) == 0 {
		d.root.walk(visit)
		return worklist, nil
	}

	seen := dedupe.New[*Node]()
	for _, id := range scope {
		sel := d.ByID(id)
		if sel == nil {
			missing = append(missing, id)
			continue
		}
		sel.walk(func(n *Node) bool {
			if seen.SeenAndRecord(n) {
				return false
			}
			return visit(n)
		})
	}
	return worklist, missing
}

// Replace sets the path data of n. n must still be attached.
func (d *Document) Replace(n *Node, data string) error {
	if !n.Attached() {
		return ErrNodeDetached
	}
	n.SetAttr("d", data)
	return nil
}

// Remove detaches n from its parent.
func (d *Document) Remove(n *Node) error {
	p := n.Parent
	if p == nil {
		return ErrNodeDetached
	}
	for i, c := range p.Children {
		if c == n {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			n.Parent = nil
			return nil
		}
	}
	return ErrNodeDetached
}

// WriteTo serializes the document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return bytes.NewBuffer(d.Bytes()).WriteTo(w)
}

// Bytes returns the serialized document.
func (d *Document) Bytes() []byte {
	var b bytes.Buffer
	for _, c := range d.root.Children {
		writeNode(&b, c)
	}
	return b.Bytes()
}

func writeNode(b *bytes.Buffer, n *Node) {
	switch n.Kind {
	case RawNode:
		b.Write(n.Raw)
	case ElementNode:
		b.WriteByte('<')
		b.WriteString(n.Name)
		for _, a := range n.Attrs {
			writeAttr(b, a)
		}
		if n.void && len(n.Children) == 0 {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		for _, c := range n.Children {
			writeNode(b, c)
		}
		b.WriteString("</")
		b.WriteString(n.Name)
		b.WriteByte('>')
	case DocumentNode:
		for _, c := range n.Children {
			writeNode(b, c)
		}
	}
}

func writeAttr(b *bytes.Buffer, a Attr) {
	b.WriteByte(' ')
	b.WriteString(a.Name)
	if a.Quote == 0 {
		return
	}
	b.WriteByte('=')
	b.WriteByte(a.Quote)
	b.WriteString(a.Value)
	b.WriteByte(a.Quote)
}
