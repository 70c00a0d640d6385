package urdf

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"sort"
	"strings"
)

// xmlNode is the raw document tree the typed parser walks. Every node keeps
// the 1-based line of its start tag; attribute order is preserved as
// written.
type xmlNode struct {
	tag      string
	attrs    []xml.Attr
	text     string
	children []*xmlNode
	line     int
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// buildXMLTree tokenizes the document and assembles the raw node tree.
// Token start offsets are mapped back to line numbers so that every node
// records where it was written.
func buildXMLTree(data []byte) (*xmlNode, error) {
	lines := lineOffsets(data)
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *xmlNode
	var stack []*xmlNode
	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				line = syntaxErr.Line
			}
			return nil, structuralf("xml", line, "malformed document: %v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &xmlNode{
				tag:   t.Name.Local,
				attrs: append([]xml.Attr(nil), t.Attr...),
				line:  lineAt(lines, start),
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, structuralf(node.tag, node.line, "multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			node := stack[len(stack)-1]
			// Match ElementTree semantics: only the text before the
			// first child element belongs to the node.
			if len(node.children) == 0 {
				node.text += string(t)
			}
		}
	}
	if root == nil {
		return nil, structuralf("xml", 0, "document has no root element")
	}
	return root, nil
}

// lineOffsets returns the byte offset of the start of each line.
func lineOffsets(data []byte) []int {
	offsets := []int{0}
	for i, b := range data {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineAt converts a byte offset to a 1-based line number.
func lineAt(offsets []int, pos int64) int {
	return sort.Search(len(offsets), func(i int) bool { return offsets[i] > int(pos) })
}

func trimmedText(n *xmlNode) string {
	return strings.TrimSpace(n.text)
}
