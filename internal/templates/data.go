package templates

import (
	"strconv"
	"strings"

	"github.com/HendryAvila/schemagraph/internal/mapping"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

// Row is one line of the schema table.
type Row struct {
	Depth       int
	Marker      string // "", "└─ ", "&nbsp;&nbsp;&nbsp;&nbsp;└─ ", ...
	Label       string
	PredicateID string
	Type        string
	Description string
	Usage       string
}

// TreeLine is one line of the hierarchy section.
type TreeLine struct {
	Indent      string
	Label       string
	PredicateID string
}

// PromptData feeds SPARQLPrompt, SchemaTable and Hierarchy.
type PromptData struct {
	TemplateID    string
	TemplateLabel string
	TargetClassID string
	Question      string
	Guidance      string
	Rows          []Row
	Tree          []TreeLine
}

// NewPromptData prepares the template data for tpl and its mapping.
func NewPromptData(tpl schema.Template, m mapping.Mapping, question string) PromptData {
	label := tpl.Label
	if label == "" {
		label = tpl.ID
	}
	class := tpl.TargetClassID()
	if class == "" {
		class = DefaultContributionClass
	}
	if strings.TrimSpace(question) == "" {
		question = "[Research Question]"
	}
	return PromptData{
		TemplateID:    tpl.ID,
		TemplateLabel: label,
		TargetClassID: class,
		Question:      question,
		Rows:          Rows(m),
		Tree:          Tree(m),
	}
}

// Rows flattens m into table rows, predicate IDs sorted at every level.
func Rows(m mapping.Mapping) []Row {
	var rows []Row
	appendRows(&rows, m, nil)
	return rows
}

func appendRows(rows *[]Row, m mapping.Mapping, chain []string) {
	for _, id := range mapping.Keys(m) {
		e := m[id]
		path := append(append([]string(nil), chain...), id)
		depth := len(chain)
		*rows = append(*rows, Row{
			Depth:       depth,
			Marker:      marker(depth),
			Label:       e.Label,
			PredicateID: id,
			Type:        predicateType(e.Cardinality),
			Description: e.Description,
			Usage:       usage(path),
		})
		if len(e.SubtemplateProperties) > 0 {
			appendRows(rows, e.SubtemplateProperties, path)
		}
	}
}

// Tree flattens m into hierarchy lines.
func Tree(m mapping.Mapping) []TreeLine {
	var lines []TreeLine
	appendTree(&lines, m, 0)
	return lines
}

func appendTree(lines *[]TreeLine, m mapping.Mapping, depth int) {
	for _, id := range mapping.Keys(m) {
		e := m[id]
		indent := ""
		if depth > 0 {
			indent = strings.Repeat("  ", depth) + "└─ "
		}
		*lines = append(*lines, TreeLine{Indent: indent, Label: e.Label, PredicateID: id})
		if len(e.SubtemplateProperties) > 0 {
			appendTree(lines, e.SubtemplateProperties, depth+1)
		}
	}
}

func marker(depth int) string {
	if depth == 0 {
		return ""
	}
	return strings.Repeat("&nbsp;&nbsp;&nbsp;&nbsp;", depth-1) + "└─ "
}

func predicateType(cardinality string) string {
	if cardinality == schema.OneToMany {
		return "Predicate (multiple)"
	}
	return "Predicate"
}

// usage renders the triple chain reaching the last predicate of path.
func usage(path []string) string {
	if len(path) == 1 {
		return "?variable orkgp:" + path[0] + " ?target"
	}
	vars := make([]string, len(path)+1)
	vars[0] = "?contribution"
	for i := 1; i < len(path); i++ {
		vars[i] = nodeVar(i)
	}
	vars[len(path)] = targetVar(len(path) - 1)

	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = vars[i] + " orkgp:" + p + " " + vars[i+1]
	}
	return strings.Join(parts, " . ")
}

func nodeVar(level int) string {
	switch level {
	case 1:
		return "?subtemplate"
	case 2:
		return "?nestedtemplate"
	}
	return "?nestedtemplate" + strconv.Itoa(level-1)
}

func targetVar(level int) string {
	switch level {
	case 1:
		return "?subtarget"
	case 2:
		return "?nestedtarget"
	}
	return "?nestedtarget" + strconv.Itoa(level-1)
}
