package cli

import (
	"bytes"
	"context"
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()

	want := []string{"export", "batch", "plan", "serve", "config", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestRootAttachesLogger(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	root := c.RootCommand()

	cacheCmd, _, err := root.Find([]string{"cache", "path"})
	if err != nil {
		t.Fatal(err)
	}
	cacheCmd.SetContext(context.Background())
	if err := root.PersistentPreRunE(cacheCmd, nil); err != nil {
		t.Fatal(err)
	}
	if loggerFromContext(cacheCmd.Context()) != c.Logger {
		t.Error("command context should carry the CLI logger")
	}
}
