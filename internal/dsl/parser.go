package dsl

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/7and1/difyrun/internal/logger"
)

const (
	// MaxContentSize is the hard size ceiling for a DSL document.
	// Anything larger is rejected outright, not partially parsed.
	MaxContentSize = 1 << 20 // 1 MiB

	// MaxDepth is the maximum nesting depth of the decoded structure.
	// Deeper documents are treated as hostile and rejected.
	MaxDepth = 10
)

// knowledgeNodeTypes are the node types that read from a knowledge base.
var knowledgeNodeTypes = map[string]bool{
	"knowledge-retrieval": true,
	"retrieval":           true,
}

// toolNodeTypes are the node types that invoke external or inline tools.
var toolNodeTypes = map[string]bool{
	"tool":         true,
	"http-request": true,
	"code":         true,
}

// Document is the typed core of a DSL file. Unknown fields at every level
// are captured in the inline Extra maps rather than stripped, so future
// format revisions round-trip without a schema change.
type Document struct {
	App      *App           `yaml:"app"`
	Workflow *Graph         `yaml:"workflow"`
	Version  string         `yaml:"version"`
	Kind     string         `yaml:"kind"`
	Extra    map[string]any `yaml:",inline"`
}

// App is the DSL's application metadata section.
type App struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description"`
	Mode           string         `yaml:"mode"`
	Icon           string         `yaml:"icon"`
	IconBackground string         `yaml:"icon_background"`
	Extra          map[string]any `yaml:",inline"`
}

// Graph is the DSL's workflow graph section.
type Graph struct {
	Nodes []Node         `yaml:"nodes"`
	Edges []Edge         `yaml:"edges"`
	Extra map[string]any `yaml:",inline"`
}

// Node is one node of the workflow graph.
type Node struct {
	ID       string         `yaml:"id"`
	Data     NodeData       `yaml:"data"`
	Position *Position      `yaml:"position"`
	Extra    map[string]any `yaml:",inline"`
}

// NodeData carries the node's declared type and labels. Type is a free
// string, not an enum: upstream introduces new node types over time.
type NodeData struct {
	Title string         `yaml:"title"`
	Type  string         `yaml:"type"`
	Desc  string         `yaml:"desc"`
	Extra map[string]any `yaml:",inline"`
}

// Position is a node's layout coordinate. (0,0) is the editor's un-set
// default, so a node sitting at the origin counts as not placed.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Edge is one edge of the workflow graph.
type Edge struct {
	Source       string         `yaml:"source"`
	Target       string         `yaml:"target"`
	SourceHandle string         `yaml:"sourceHandle"`
	TargetHandle string         `yaml:"targetHandle"`
	Extra        map[string]any `yaml:",inline"`
}

// ParsedDSL is the validated, partially-tolerant record derived from one
// DSL document.
type ParsedDSL struct {
	// Doc is the typed core, nil when the strict shape check failed.
	// Metadata below is extracted either way.
	Doc *Document

	Name        string
	Description string
	Mode        string
	Version     string

	// NodeCount matches the number of node entries found, even when
	// individual entries fail the strict shape check.
	NodeCount int

	// NodeTypes is the deduplicated type inventory in first-seen order.
	NodeTypes []string

	// HasValidPositions is false as soon as any node lacks position
	// data or sits at the coordinate origin.
	HasValidPositions bool

	HasKnowledgeBase bool
	HasToolNodes     bool
}

// Parse turns raw DSL text into a ParsedDSL. It returns nil for documents
// that cannot be salvaged at all: oversized, malformed YAML, a non-mapping
// root, or nesting deeper than MaxDepth. The caller treats nil as "skip
// this file, count as an error".
func Parse(content string) *ParsedDSL {
	if len(content) > MaxContentSize {
		logger.Warn("DSL too large (%d bytes > %d)", len(content), MaxContentSize)
		return nil
	}

	var raw any
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		logger.Warn("DSL failed to parse: %v", err)
		return nil
	}

	root, ok := raw.(map[string]any)
	if !ok || root == nil {
		logger.Warn("DSL root is not a mapping")
		return nil
	}

	if d := depth(raw); d > MaxDepth {
		logger.Warn("DSL structure too deep (%d > %d)", d, MaxDepth)
		return nil
	}

	// Strict shape check. A failure here is validation-soft: log and
	// carry on with the best-effort raw structure.
	var doc Document
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		logger.Warn("DSL shape validation failed, extracting best-effort: %v", err)
		return extract(root, nil)
	}
	return extract(root, &doc)
}

// extract derives metadata by walking the raw mapping. Walking the raw
// structure rather than the typed one keeps extraction identical whether
// or not the strict shape check passed.
func extract(root map[string]any, doc *Document) *ParsedDSL {
	p := &ParsedDSL{
		Doc:               doc,
		Version:           stringAt(root, "version"),
		HasValidPositions: true,
	}

	if app, ok := root["app"].(map[string]any); ok {
		p.Name = stringAt(app, "name")
		p.Description = stringAt(app, "description")
		p.Mode = stringAt(app, "mode")
	}

	nodes := nodeList(root)
	p.NodeCount = len(nodes)

	seen := make(map[string]bool)
	for _, n := range nodes {
		node, ok := n.(map[string]any)
		if !ok {
			// Still counted in NodeCount, but nothing to derive.
			p.HasValidPositions = false
			continue
		}

		if data, ok := node["data"].(map[string]any); ok {
			if typ := stringAt(data, "type"); typ != "" {
				if !seen[typ] {
					seen[typ] = true
					p.NodeTypes = append(p.NodeTypes, typ)
				}
				if knowledgeNodeTypes[typ] {
					p.HasKnowledgeBase = true
				}
				if toolNodeTypes[typ] {
					p.HasToolNodes = true
				}
			}
		}

		x, y, hasPos := position(node)
		if !hasPos || (x == 0 && y == 0) {
			p.HasValidPositions = false
		}
	}

	return p
}

// nodeList returns workflow.nodes as a raw slice, empty when absent.
func nodeList(root map[string]any) []any {
	wf, ok := root["workflow"].(map[string]any)
	if !ok {
		return nil
	}
	nodes, _ := wf["nodes"].([]any)
	return nodes
}

// position reads a node's layout coordinate, reporting whether one exists.
func position(node map[string]any) (x, y float64, ok bool) {
	pos, isMap := node["position"].(map[string]any)
	if !isMap {
		return 0, 0, false
	}
	x, xok := numberAt(pos, "x")
	y, yok := numberAt(pos, "y")
	if !xok || !yok {
		return 0, 0, false
	}
	return x, y, true
}

// stringAt reads a string-ish scalar from a raw mapping.
func stringAt(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

// numberAt reads a numeric scalar from a raw mapping.
func numberAt(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// depth computes the nesting depth of a decoded YAML structure.
// Scalars and empty containers are depth 0; each populated mapping or
// sequence level adds one.
func depth(v any) int {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return 0
		}
		max := 0
		for _, child := range t {
			if d := depth(child); d > max {
				max = d
			}
		}
		return max + 1
	case []any:
		if len(t) == 0 {
			return 0
		}
		max := 0
		for _, child := range t {
			if d := depth(child); d > max {
				max = d
			}
		}
		return max + 1
	default:
		return 0
	}
}
