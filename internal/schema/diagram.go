package schema

import (
	"fmt"
	"strings"
)

// Mermaid renders the schema as a Mermaid erDiagram. Foreign keys that are
// part of the child's primary key are drawn solid, the rest dotted.
func Mermaid(s *Schema) (string, error) {
	order, err := s.CreationOrder()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("erDiagram\n")

	for _, name := range order {
		t, _ := s.Table(name)
		fmt.Fprintf(&b, "    %s {\n", t.Name)
		for _, c := range t.Columns {
			base := strings.Fields(c.TypeName())[0]
			if i := strings.Index(base, "("); i > 0 {
				base = base[:i]
			}
			var keys []string
			if t.IsPrimary(c.Name) {
				keys = append(keys, "PK")
			}
			if _, ok := t.foreignKeyFor(c.Name); ok {
				keys = append(keys, "FK")
			}
			line := fmt.Sprintf("        %s %s", base, c.Name)
			if len(keys) > 0 {
				line += " " + strings.Join(keys, ",")
			}
			line += fmt.Sprintf(" %q", c.TypeName())
			b.WriteString(line + "\n")
		}
		b.WriteString("    }\n")
	}

	for _, name := range order {
		t, _ := s.Table(name)
		for _, fk := range t.ForeignKeys {
			link := ".."
			if t.primaryForeignKey(fk) {
				link = "--"
			}
			fmt.Fprintf(&b, "    %s ||%so{ %s : %q\n", fk.RefTable, link, t.Name, strings.Join(fk.Columns, ","))
		}
	}

	return b.String(), nil
}

// DOT renders the schema as a Graphviz digraph with parents pointing at
// children. Lookup tables are grey, manual tables green.
func DOT(s *Schema) (string, error) {
	order, err := s.CreationOrder()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", s.Name)
	b.WriteString("    rankdir=TB;\n")
	b.WriteString("    node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\"];\n")

	for _, name := range order {
		t, _ := s.Table(name)
		color := "#b8e0b8"
		if t.Tier == Lookup {
			color = "#d9d9d9"
		}
		label := t.Class
		if label == "" {
			label = t.Name
		}
		fmt.Fprintf(&b, "    %q [label=%q, fillcolor=%q];\n", t.Name, label, color)
	}

	for _, name := range order {
		t, _ := s.Table(name)
		for _, fk := range t.ForeignKeys {
			style := "dashed"
			if t.primaryForeignKey(fk) {
				style = "solid"
			}
			fmt.Fprintf(&b, "    %q -> %q [style=%s];\n", fk.RefTable, t.Name, style)
		}
	}

	b.WriteString("}\n")
	return b.String(), nil
}
