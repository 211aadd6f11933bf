package main

import (
	"strings"
	"testing"
)

func TestHelp_RootListsEnvironment(t *testing.T) {
	testEnv(t)
	initHelp(rootCmd)

	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("--help: %v", err)
	}
	for _, want := range []string{"Usage:", "Commands:", "Environment:", "CANC_SEED", "--seed", "CANC_CONFIG"} {
		if !strings.Contains(out, want) {
			t.Errorf("root help should contain %q, got:\n%s", want, out)
		}
	}
}

func TestHelp_SubcommandShowsExamples(t *testing.T) {
	testEnv(t)
	initHelp(rootCmd)

	out, err := execute(t, "run", "--help")
	if err != nil {
		t.Fatalf("run --help: %v", err)
	}
	if !strings.Contains(out, "Examples:\n  canc run weather.csv") {
		t.Errorf("run help should list examples, got:\n%s", out)
	}
	if strings.Contains(out, "Environment:") {
		t.Error("only the root command lists the environment")
	}
	if !strings.Contains(out, "Global Flags:") {
		t.Error("run help should list inherited flags")
	}
}
