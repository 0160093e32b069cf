package condaenv

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// pipIndent is the indentation of entries nested under "- pip:".
const pipIndent = "  "

// Marshal renders doc as block YAML with keys in the order name,
// channels, dependencies. Sequences are written without indentation under
// their key and pip entries are nested two spaces under "- pip:":
//
//	channels:
//	- defaults
//	dependencies:
//	- python=3.9
//	- pip:
//	  - numpy==1.21
//
// Empty channel lists and empty pip blocks are omitted.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if doc.Name != "" {
		name, err := scalar(doc.Name, "")
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%s: %s\n", keyName, name)
	}
	if len(doc.Channels) > 0 {
		buf.WriteString(keyChannels + ":\n")
		for _, ch := range doc.Channels {
			if err := writeItem(&buf, "", ch); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteString(keyDependencies + ":")
	if len(doc.Dependencies) == 0 {
		buf.WriteString(" []")
	}
	buf.WriteString("\n")
	for _, dep := range doc.Dependencies {
		if !dep.IsPip {
			if err := writeItem(&buf, "", dep.Spec); err != nil {
				return nil, err
			}
			continue
		}
		if len(dep.Pip) == 0 {
			continue
		}
		buf.WriteString("- " + keyPip + ":\n")
		for _, spec := range dep.Pip {
			if err := writeItem(&buf, pipIndent, spec); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

// Write marshals doc and writes it to path, replacing any existing file.
func Write(doc *Document, path string) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write conda environment: %w", err)
	}
	return nil
}

// writeItem writes one "- value" sequence entry at indent.
func writeItem(buf *bytes.Buffer, indent, value string) error {
	s, err := scalar(value, indent+"  ")
	if err != nil {
		return err
	}
	buf.WriteString(indent + "- " + s + "\n")
	return nil
}

// yaml11Bools are the plain words YAML 1.1 readers such as conda resolve to
// booleans. yaml.v3 follows YAML 1.2 and leaves most of them unquoted.
var yaml11Bools = map[string]bool{
	"y": true, "Y": true, "yes": true, "Yes": true, "YES": true,
	"n": true, "N": true, "no": true, "No": true, "NO": true,
	"true": true, "True": true, "TRUE": true,
	"false": true, "False": true, "FALSE": true,
	"on": true, "On": true, "ON": true,
	"off": true, "Off": true, "OFF": true,
}

// scalar renders s the way the YAML encoder would, quoting values that
// would otherwise read back as numbers, booleans or structure. Lines after
// the first (long folded values) are indented by cont.
func scalar(s, cont string) (string, error) {
	node := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if yaml11Bools[s] {
		node.Style = yaml.DoubleQuotedStyle
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", fmt.Errorf("encode %q: %w", s, err)
	}
	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = cont + lines[i]
		}
	}
	return strings.Join(lines, "\n"), nil
}
