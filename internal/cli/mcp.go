package cli

import (
	"context"

	"github.com/aretw0/bardic/pkg/adapters/mcp"
)

// ServeMCP serves the stories in opts.StoriesDir as MCP tools over stdio.
// Logs stay on stderr so stdout carries only the protocol.
func ServeMCP(ctx context.Context, opts ServeOptions, version string) error {
	app, err := NewApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := mcp.NewServer(app.Sessions, version, mcp.WithLogger(opts.Logger))
	if opts.Logger != nil {
		opts.Logger.Info("serving MCP on stdio", "stories", opts.StoriesDir)
	}
	return srv.ServeStdio()
}
