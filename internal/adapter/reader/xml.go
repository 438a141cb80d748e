package reader

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

type xmlFrame struct {
	name     string
	fields   map[string]any
	hasChild bool
	text     strings.Builder
}

// readXML folds an element tree into maps. Attributes become "@name" keys,
// repeated child elements become sequences, and an element holding only
// text becomes a string. Mixed text is kept under "#text".
func readXML(data []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var stack []*xmlFrame
	var root map[string]any

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(MarkupTree, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, malformed(MarkupTree, errors.New("multiple root elements"))
			}
			frame := &xmlFrame{name: t.Name.Local, fields: make(map[string]any)}
			for _, attr := range t.Attr {
				frame.fields["@"+attr.Name.Local] = attr.Value
			}
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, frame)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			value := frame.value()

			if len(stack) == 0 {
				root = map[string]any{frame.name: value}
				continue
			}
			addChild(stack[len(stack)-1].fields, frame.name, value)
		}
	}

	if root == nil {
		return nil, malformed(MarkupTree, errors.New("no root element"))
	}
	return root, nil
}

func (f *xmlFrame) value() any {
	text := strings.TrimSpace(f.text.String())
	if len(f.fields) == 0 && !f.hasChild {
		return text
	}
	if text != "" {
		f.fields["#text"] = text
	}
	return f.fields
}

func addChild(fields map[string]any, name string, value any) {
	existing, ok := fields[name]
	if !ok {
		fields[name] = value
		return
	}
	if seq, ok := existing.([]any); ok {
		fields[name] = append(seq, value)
		return
	}
	fields[name] = []any{existing, value}
}
