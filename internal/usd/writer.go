package usd

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// WriteFile serializes the stage as usda text to path.
func (s *Stage) WriteFile(path string) error {
	data := s.Export()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing stage: %w", err)
	}
	return nil
}

// Export serializes the stage as usda text.
func (s *Stage) Export() string {
	var b strings.Builder
	b.WriteString("#usda 1.0\n(\n")
	if s.Comment != "" {
		fmt.Fprintf(&b, "    comment = %s\n", quote(s.Comment))
	}
	if s.defaultPrim != nil {
		fmt.Fprintf(&b, "    defaultPrim = %s\n", quote(s.defaultPrim.name))
	}
	if s.Doc != "" {
		fmt.Fprintf(&b, "    doc = %s\n", quote(s.Doc))
	}
	fmt.Fprintf(&b, "    metersPerUnit = %s\n", formatFloat(s.MetersPerUnit))
	fmt.Fprintf(&b, "    upAxis = %s\n", quote(s.UpAxis))
	b.WriteString(")\n")
	for _, child := range s.pseudoRoot.children {
		b.WriteString("\n")
		writePrim(&b, child, 0)
	}
	return b.String()
}

func writePrim(b *strings.Builder, p *Prim, depth int) {
	pad := strings.Repeat("    ", depth)
	if p.typeName == "" {
		fmt.Fprintf(b, "%sdef %s", pad, quote(p.name))
	} else {
		fmt.Fprintf(b, "%sdef %s %s", pad, p.typeName, quote(p.name))
	}

	var meta []string
	if len(p.apiSchemas) > 0 {
		quoted := make([]string, len(p.apiSchemas))
		for i, s := range p.apiSchemas {
			quoted[i] = quote(s)
		}
		meta = append(meta, fmt.Sprintf("prepend apiSchemas = [%s]", strings.Join(quoted, ", ")))
	}
	if p.displayName != "" {
		meta = append(meta, fmt.Sprintf("displayName = %s", quote(p.displayName)))
	}
	if len(meta) > 0 {
		b.WriteString(" (\n")
		for _, m := range meta {
			fmt.Fprintf(b, "%s    %s\n", pad, m)
		}
		fmt.Fprintf(b, "%s)", pad)
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "%s{\n", pad)

	inner := pad + "    "
	for _, a := range p.attrs {
		fmt.Fprintf(b, "%s%s = %s\n", inner, attrDecl(a), formatValue(a.Value))
	}
	for _, r := range p.rels {
		targets := make([]string, len(r.Targets))
		for i, t := range r.Targets {
			targets[i] = "<" + t.Path() + ">"
		}
		if len(targets) == 1 {
			fmt.Fprintf(b, "%srel %s = %s\n", inner, r.Name, targets[0])
		} else {
			fmt.Fprintf(b, "%srel %s = [%s]\n", inner, r.Name, strings.Join(targets, ", "))
		}
	}

	for _, child := range p.children {
		b.WriteString("\n")
		writePrim(b, child, depth+1)
	}
	fmt.Fprintf(b, "%s}\n", pad)
}

func attrDecl(a Attr) string {
	var parts []string
	if a.Custom {
		parts = append(parts, "custom")
	}
	if a.Uniform {
		parts = append(parts, "uniform")
	}
	parts = append(parts, a.TypeName, a.Name)
	return strings.Join(parts, " ")
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return quote(v)
	case Token:
		return quote(string(v))
	case Raw:
		return string(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(v)
	case float64:
		return formatFloat(v)
	case r3.Vec:
		return fmt.Sprintf("(%s, %s, %s)", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
	case quat.Number:
		return fmt.Sprintf("(%s, %s, %s, %s)",
			formatFloat(v.Real), formatFloat(v.Imag), formatFloat(v.Jmag), formatFloat(v.Kmag))
	case [3]float64:
		return fmt.Sprintf("(%s, %s, %s)", formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]))
	case [4]float64:
		return fmt.Sprintf("(%s, %s, %s, %s)",
			formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]), formatFloat(v[3]))
	case []int:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []r3.Vec:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = formatValue(p)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []Token:
		parts := make([]string, len(v))
		for i, t := range v {
			parts[i] = quote(string(t))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case [][4]float64:
		parts := make([]string, len(v))
		for i, c := range v {
			parts[i] = formatValue(c)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
