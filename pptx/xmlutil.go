package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// parseXML parses a part into a mutable tree.
func parseXML(data []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if rootElement(doc) == nil {
		return nil, fmt.Errorf("no root element")
	}
	return doc, nil
}

// renderXML serializes a document node back to bytes.
func renderXML(doc *xmlquery.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.WriteWithOptions(&buf, xmlquery.WithEmptyTagSupport(), xmlquery.WithPreserveSpace()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rootElement returns the document element.
func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	if doc == nil {
		return nil
	}
	if doc.Type == xmlquery.ElementNode {
		return doc
	}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

// elements returns the element children of n in document order.
func elements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// child returns the first element child with the given local name.
func child(n *xmlquery.Node, local string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local {
			return c
		}
	}
	return nil
}

// children returns every element child with the given local name.
func children(n *xmlquery.Node, local string) []*xmlquery.Node {
	if n == nil {
		return nil
	}
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local {
			out = append(out, c)
		}
	}
	return out
}

// descend follows a path of local names from n.
func descend(n *xmlquery.Node, path ...string) *xmlquery.Node {
	for _, local := range path {
		n = child(n, local)
		if n == nil {
			return nil
		}
	}
	return n
}

// attr returns the value of an unqualified attribute.
func attr(n *xmlquery.Node, local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

// attrNS returns the value of a namespaced attribute regardless of the
// prefix the document bound to the namespace.
func attrNS(n *xmlquery.Node, ns, local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Name.Local == local && a.NamespaceURI == ns {
			return a.Value
		}
	}
	return ""
}

// setAttr sets an unqualified attribute, adding it when absent.
func setAttr(n *xmlquery.Node, local, value string) {
	for i, a := range n.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xmlquery.Attr{Name: xml.Name{Local: local}, Value: value})
}

// prefixFor returns the prefix bound to uri on root, declaring preferred
// when the namespace is not yet declared there.
func prefixFor(root *xmlquery.Node, uri, preferred string) string {
	for _, a := range root.Attr {
		if a.Name.Space == "xmlns" && a.Value == uri {
			return a.Name.Local
		}
	}
	root.Attr = append(root.Attr, xmlquery.Attr{
		Name:  xml.Name{Space: "xmlns", Local: preferred},
		Value: uri,
	})
	return preferred
}

// stripNamespaceDecls removes xmlns attributes from n so a parsed fragment
// can be grafted under an element that already declares them.
func stripNamespaceDecls(n *xmlquery.Node) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// parseFragment parses markup whose root declares its own namespaces and
// returns the detached root element.
func parseFragment(markup string) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	root := rootElement(doc)
	if root == nil {
		return nil, fmt.Errorf("empty fragment")
	}
	xmlquery.RemoveFromTree(root)
	stripNamespaceDecls(root)
	return root, nil
}

// insertBefore places n immediately before ref under ref's parent.
func insertBefore(ref, n *xmlquery.Node) {
	parent := ref.Parent
	n.Parent = parent
	n.NextSibling = ref
	n.PrevSibling = ref.PrevSibling
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = n
	} else {
		parent.FirstChild = n
	}
	ref.PrevSibling = n
}
