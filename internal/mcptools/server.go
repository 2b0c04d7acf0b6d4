package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewClusterMCPServer creates an MCP server with all clustering tools registered.
func NewClusterMCPServer(svc *ClusterService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tipcluster",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cluster_tree",
		Description: "Link every pair of tips whose patristic distance is below the cutoff, then group linked tips into clusters. Replaces the graph held by the server.",
	}, svc.ClusterTree)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_short_edges",
		Description: "For each subject's earliest tip, list tips of other subjects within the cutoff. Labels must encode subject and collection date.",
	}, svc.FindShortEdges)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "subject_links",
		Description: "Return the shortest tip-to-tip distance between every pair of subjects closer than the cutoff.",
	}, svc.SubjectLinks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_clusters",
		Description: "Return the clusters computed by the last cluster_tree call, largest first.",
	}, svc.GetClusters)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_neighbors",
		Description: "Return the tips linked to a tip in the last cluster_tree graph, closest first.",
	}, svc.GetNeighbors)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunMCPServer starts an HTTP server exposing the clustering MCP tools.
func RunMCPServer(ctx context.Context, svc *ClusterService, addr string) error {
	server := NewClusterMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
