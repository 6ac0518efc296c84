package dictionary

import (
	"bytes"
	"encoding/json"

	"github.com/xlab/treeprint"
	"gopkg.in/yaml.v2"
)

// ToTree renders d as a box-drawn tree, one node per entry.
func (d *Dictionary) ToTree() string {
	root := treeprint.NewWithRoot(d.name)
	addTreeNodes(root, d)
	return root.String()
}

func addTreeNodes(t treeprint.Tree, d *Dictionary) {
	for _, e := range d.entries {
		kw := e.keyword.Text()
		switch {
		case e.dict != nil:
			addTreeNodes(t.AddBranch(kw), e.dict)
		case len(e.stream) == 0:
			t.AddNode(kw)
		default:
			t.AddNode(kw + " " + e.stream.String())
		}
	}
}

// ToYAML renders d as YAML, keeping entry order. Single-token values become
// scalars, parenthesized lists of plain tokens become sequences and
// anything else becomes its dictionary-syntax text.
func (d *Dictionary) ToYAML() ([]byte, error) {
	return yaml.Marshal(yamlSlice(d))
}

func yamlSlice(d *Dictionary) yaml.MapSlice {
	out := make(yaml.MapSlice, 0, len(d.entries))
	for _, e := range d.entries {
		var v any
		if e.dict != nil {
			v = yamlSlice(e.dict)
		} else {
			v = exportValue(e.stream)
		}
		out = append(out, yaml.MapItem{Key: e.keyword.Name, Value: v})
	}
	return out
}

// ToJSON renders d as an indented JSON object, keeping entry order.
func (d *Dictionary) ToJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONObject(&buf, d); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// MarshalJSON implements json.Marshaler with entries in order.
func (d *Dictionary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONObject(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSONObject(buf *bytes.Buffer, d *Dictionary) error {
	buf.WriteByte('{')
	for i, e := range d.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.keyword.Name)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if e.dict != nil {
			if err := writeJSONObject(buf, e.dict); err != nil {
				return err
			}
			continue
		}
		v, err := json.Marshal(exportValue(e.stream))
		if err != nil {
			return err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}

func exportValue(s TokenStream) any {
	switch len(s) {
	case 0:
		return nil
	case 1:
		return exportToken(s[0])
	}
	if s[0].IsPunct('(') && s[len(s)-1].IsPunct(')') {
		items := make([]any, 0, len(s)-2)
		for _, t := range s[1 : len(s)-1] {
			if t.Kind == TokenPunctuation {
				return s.String()
			}
			items = append(items, exportToken(t))
		}
		return items
	}
	return s.String()
}

func exportToken(t Token) any {
	switch t.Kind {
	case TokenLabel:
		return t.Int
	case TokenScalar:
		return t.Float
	case TokenWord, TokenString:
		return t.Str
	}
	return t.Text()
}
