// Package mcp provides an MCP (Model Context Protocol) server exposing the
// bayeslab workflow as tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/statlab/bayeslab/internal/session"
)

// Server wraps the MCP SDK server around one workspace session.
type Server struct {
	server  *sdk.Server
	session *session.Session
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "bayeslab")
	Version string // Server version
	Root    string // Workspace root directory
	LogW    io.Writer
}

// NewServer opens the workspace and registers the bayeslab tools.
func NewServer(cfg *Config) (*Server, error) {
	logw := cfg.LogW
	if logw == nil {
		logw = os.Stderr
	}
	sess, err := session.Open(cfg.Root, logw)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{server: mcpServer, session: sess}
	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport. It blocks until the
// client disconnects or the context is cancelled; SIGINT and SIGTERM
// cancel it.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.session.Close()
	return err
}

// Close closes the server and releases the workspace.
func (s *Server) Close() error {
	return s.session.Close()
}
