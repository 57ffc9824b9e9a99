package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/scene"
	"github.com/spaghettifunk/anima-loader/engine/systems"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	nodeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	materialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("192"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	summaryStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

func printMesh(w io.Writer, mesh *systems.Mesh, metrics core.MetricsSnapshot) {
	title := fmt.Sprintf("%s (%s)", mesh.Name, mesh.Origin)
	if mesh.Generation > 0 {
		title = fmt.Sprintf("%s, reload %d", title, mesh.Generation)
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprint(w, renderTree(mesh.Root))

	nodes, vertices, triangles := mesh.Root.Stats()
	summary := fmt.Sprintf("nodes %d  vertices %d  triangles %d\nparses %d  failures %d  bytes %d  avg %.2fms",
		nodes, vertices, triangles, metrics.Parses, metrics.Failures, metrics.BytesRead, metrics.AvgMS)
	fmt.Fprintln(w, summaryStyle.Render(summary))
}

func renderTree(root *scene.Object3D) string {
	var b strings.Builder
	root.Walk(func(n *scene.Object3D, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		name := n.Name
		if name == "" {
			name = "(root)"
		}
		b.WriteString(nodeStyle.Render(name))
		if g := n.Geometry; g != nil {
			b.WriteString(detailStyle.Render(fmt.Sprintf("  %d vertices, %d triangles", g.VertexCount(), g.TriangleCount())))
		}
		if n.Material != nil {
			b.WriteString(materialStyle.Render("  [" + n.Material.Name() + textureList(n.Material) + "]"))
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

func textureList(m *scene.Material) string {
	var names []string
	for _, t := range []*scene.Texture{m.DiffuseMap, m.SpecularMap, m.AlphaMap, m.BumpMap} {
		if t != nil {
			names = append(names, t.Name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return " " + strings.Join(names, ", ")
}
