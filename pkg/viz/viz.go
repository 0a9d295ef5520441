// Package viz renders a stored graph as a self-contained interactive
// HTML page. It only ever reads from storage.
package viz

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"os/exec"
	"runtime"

	"github.com/graphloom/graphloom/pkg/logger"
	"github.com/graphloom/graphloom/pkg/store"
)

// DefaultQuery returns every relationship in the graph. Callers can
// narrow the view with their own Cypher.
const DefaultQuery = "MATCH (s)-[r]->(t) RETURN s, r, t"

// DefaultLimit caps the rendered graph so a large store still produces
// a page the browser can lay out.
const DefaultLimit = 50

type vizNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Title string `json:"title"`
}

type vizEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// Render queries the store and writes an HTML visualization to outPath.
// An empty query falls back to DefaultQuery, a non-positive limit to
// DefaultLimit, and an empty outPath to a temp file. Returns the path
// of the written file.
func Render(ctx context.Context, storage store.GraphStorage, query string, limit int, outPath string) (string, error) {
	if query == "" {
		query = DefaultQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	triples, err := storage.QueryTriples(ctx, query, limit)
	if err != nil {
		return "", err
	}

	nodes, edges := buildElements(triples)
	logger.Info("rendering graph", "nodes", len(nodes), "edges", len(edges))

	out, err := createOutput(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := pageTemplate.Execute(out, map[string]any{
		"Nodes": nodes,
		"Edges": edges,
	}); err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}

	return out.Name(), nil
}

func createOutput(outPath string) (*os.File, error) {
	if outPath == "" {
		return os.CreateTemp("", "graphloom-*.html")
	}
	return os.Create(outPath)
}

// buildElements flattens triples into deduplicated node and edge lists.
// A node appearing in many triples is added once, re-adding is a no-op.
func buildElements(triples []store.Triple) ([]vizNode, []vizEdge) {
	nodes := []vizNode{}
	edges := []vizEdge{}
	seen := make(map[string]struct{})

	addNode := func(node store.Node) {
		if _, ok := seen[node.ID]; ok {
			return
		}
		seen[node.ID] = struct{}{}
		nodes = append(nodes, vizNode{
			ID:    node.ID,
			Label: nodeLabel(node),
			Group: nodeGroup(node),
			Title: nodeTitle(node),
		})
	}

	for _, triple := range triples {
		addNode(triple.Source)
		addNode(triple.Target)
		edges = append(edges, vizEdge{
			From:  triple.Source.ID,
			To:    triple.Target.ID,
			Label: triple.Type,
		})
	}

	return nodes, edges
}

// nodeLabel picks the display label: name, then title, then the raw id.
func nodeLabel(node store.Node) string {
	if name, ok := node.Properties["name"].(string); ok && name != "" {
		return name
	}
	if title, ok := node.Properties["title"].(string); ok && title != "" {
		return title
	}
	return node.ID
}

// nodeGroup picks the most specific label for coloring, skipping the
// generic Entity marker.
func nodeGroup(node store.Node) string {
	for _, label := range node.Labels {
		if label != "Entity" {
			return label
		}
	}
	return "Entity"
}

func nodeTitle(node store.Node) string {
	title := ""
	for k, v := range node.Properties {
		if k == "key" {
			continue
		}
		title += fmt.Sprintf("%s: %v\n", k, v)
	}
	return title
}

// Open launches the system browser on the rendered file. Failures are
// reported, not fatal, the file is already on disk.
func Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}

var pageTemplate = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Knowledge Graph</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
	html, body { margin: 0; height: 100%; }
	#graph { width: 100%; height: 100%; }
</style>
</head>
<body>
<div id="graph"></div>
<script>
	const nodes = new vis.DataSet({{.Nodes}});
	const edges = new vis.DataSet({{.Edges}});
	const container = document.getElementById("graph");
	const options = {
		nodes: { shape: "dot", size: 14, font: { size: 14 } },
		edges: { arrows: "to", font: { size: 10, align: "middle" } },
		physics: { barnesHut: { gravitationalConstant: -4000 }, stabilization: { iterations: 200 } }
	};
	new vis.Network(container, { nodes, edges }, options);
</script>
</body>
</html>
`))
