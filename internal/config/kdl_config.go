package config

import (
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// parseKDL parses the body of a .lcfgscan.kdl file:
//
//	validator_threshold 65536
//	log_scan_events true
//	max_include_depth 64
//	exclude {
//	    "**/*.bak"
//	    "**/.git/**"
//	}
func parseKDL(content string) (Options, error) {
	opts := Options{}

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return opts, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "validator_threshold":
			if v, ok := firstIntArg(n); ok {
				opts.ValidatorThreshold = int64(v)
			}
		case "log_scan_events":
			if b, ok := firstBoolArg(n); ok {
				opts.LogScanEvents = b
			}
		case "max_include_depth":
			if v, ok := firstIntArg(n); ok {
				opts.MaxIncludeDepth = v
			}
		case "exclude":
			opts.Exclude = append(opts.Exclude, collectStringArgs(n)...)
		}
	}

	return opts, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// collectStringArgs gathers string values either from a node's inline
// arguments or, for the block form (exclude { "a" "b" }), from the
// names of its children.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
