package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores flag variables between command runs.
func resetFlags() {
	cfgFile, verbose = "", false
	queryFlags.requestFlags = requestFlags{output: "text"}
	queryFlags.file = ""
	estimateFlags = requestFlags{output: "text"}
	usageFlags.since, usageFlags.until, usageFlags.days = "", "", 0
	usageFlags.feature, usageFlags.path, usageFlags.output = "", "", "text"
	validateFlags.print = false
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "llmgateway.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
