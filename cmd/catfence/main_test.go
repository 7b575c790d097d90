package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ayusman/catfence/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidate_Defaults(t *testing.T) {
	out, err := execute(t, "validate")
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "configuration OK") {
		t.Errorf("output = %q", out)
	}
}

func TestValidate_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catfence.yaml")
	file := "motion:\n  min_area: 900\nalert:\n  cooldown: 30s\n"
	if err := os.WriteFile(path, []byte(file), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "validate", "--print", "--config", path, "-a", "2000", "--bot-token", "secret", "-c", "123456789")
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}

	for _, want := range []string{"min_area: 2000", "cooldown: 30s", "channel_id: \"123456789\"", "<redacted>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "secret") {
		t.Error("the bot token must not be printed")
	}
}

func TestValidate_Invalid(t *testing.T) {
	_, err := execute(t, "validate", "--min-area=-1", "--bot-token", "secret")
	if err == nil {
		t.Fatal("validate should fail")
	}
	for _, want := range []string{"min_area", "discord.token"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestValidate_BadCooldown(t *testing.T) {
	if _, err := execute(t, "validate", "--cooldown", "soon"); err == nil {
		t.Error("an unparsable cooldown should fail")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"10", 10 * time.Second},
		{"1m30s", 90 * time.Second},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseDuration(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestWatchStdin(t *testing.T) {
	quit := 0
	watchStdin(strings.NewReader("hello\n Q \nq\n"), func() { quit++ })
	if quit != 1 {
		t.Errorf("quit called %d times, want 1", quit)
	}

	quit = 0
	watchStdin(strings.NewReader("quit\n"), func() { quit++ })
	if quit != 0 {
		t.Error("only a bare q should quit")
	}
}

func TestBuildDeterrent(t *testing.T) {
	dir := t.TempDir()
	scare := filepath.Join(dir, "scare")
	if err := os.MkdirAll(scare, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"scare","executable":"scare","actions":["play","list"]}`
	if err := os.WriteFile(filepath.Join(scare, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		deterrent string
		wantNil   bool
	}{
		{name: "installed", deterrent: "scare"},
		{name: "missing", deterrent: "sprinkler", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			det := buildDeterrent(config.PluginsConfig{
				Dir:       dir,
				Deterrent: tt.deterrent,
				Action:    "play",
				Timeout:   time.Second,
			}, zap.New(core))

			if (det == nil) != tt.wantNil {
				t.Fatalf("buildDeterrent() = %v, wantNil %v", det, tt.wantNil)
			}

			found := logs.FilterMessage("plugins discovered").All()
			if len(found) != 1 {
				t.Fatalf("logged %d discovery entries, want 1", len(found))
			}
			fields := found[0].ContextMap()
			if fields["dir"] != dir {
				t.Errorf("dir = %v, want %s", fields["dir"], dir)
			}
			if names, ok := fields["plugins"].([]interface{}); !ok || len(names) != 1 || names[0] != "scare" {
				t.Errorf("plugins = %#v, want [scare]", fields["plugins"])
			}
		})
	}
}
