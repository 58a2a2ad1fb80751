package mcp

import (
	"io"
	"os"
	"testing"

	"github.com/statlab/bayeslab/internal/store"
)

func TestNewServer(t *testing.T) {
	root := t.TempDir()

	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    root,
		LogW:    io.Discard,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	if server.server == nil {
		t.Error("Server.server is nil")
	}
	if server.session == nil {
		t.Error("Server.session is nil")
	}
	if _, err := os.Stat(store.DBPath(root)); err != nil {
		t.Errorf("workspace database not created: %v", err)
	}
}
