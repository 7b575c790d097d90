package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, name, script string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    actions,
		},
		Path:       dir,
		Executable: scriptPath,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "test-plugin", "#!/bin/sh\necho '{\"success\":true,\"data\":{\"message\":\"hiss\"}}'\n", "play")

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, &Request{
		Action:  "play",
		Trigger: "/tableflip",
		Params:  json.RawMessage(`{"sound":"hiss.wav"}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hiss" {
		t.Errorf("expected message 'hiss', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo-plugin", `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`, "echo")

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, &Request{
		Action:  "echo",
		Trigger: "tray",
		Params:  json.RawMessage(`{"sound":"bell.wav"}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received struct {
			Action  string          `json:"action"`
			Trigger string          `json:"trigger"`
			Params  json.RawMessage `json:"params"`
		} `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	if data.Received.Action != "echo" {
		t.Errorf("expected action 'echo', got %q", data.Received.Action)
	}
	if data.Received.Trigger != "tray" {
		t.Errorf("expected trigger 'tray', got %q", data.Received.Trigger)
	}
	if string(data.Received.Params) != `{"sound":"bell.wav"}` {
		t.Errorf("unexpected params %s", data.Received.Params)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow-plugin", "#!/bin/sh\nsleep 10\necho '{\"success\":true}'\n", "slow")

	executor := NewExecutor(100 * time.Millisecond)
	_, err := executor.Execute(context.Background(), plugin, &Request{Action: "slow"})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExecutor_CancelledContext(t *testing.T) {
	plugin := scriptPlugin(t, "slow-plugin", "#!/bin/sh\nsleep 10\n", "slow")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExecutor(5*time.Second).Execute(ctx, plugin, &Request{Action: "slow"}); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		wantErr     bool
		wantMessage string
	}{
		{
			name:        "error response",
			script:      "#!/bin/sh\necho '{\"success\":false,\"error\":\"no speaker\"}'\n",
			wantMessage: "no speaker",
		},
		{
			name:    "invalid json",
			script:  "#!/bin/sh\necho 'not valid json'\n",
			wantErr: true,
		},
		{
			name:    "non-zero exit",
			script:  "#!/bin/sh\necho 'Error: something failed' >&2\nexit 1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := scriptPlugin(t, "failing-plugin", tt.script, "play")

			response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: "play"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() failed: %v", err)
			}
			if response.Success {
				t.Error("expected success=false, got true")
			}
			if response.Error != tt.wantMessage {
				t.Errorf("expected error %q, got %q", tt.wantMessage, response.Error)
			}
		})
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", got)
	}
	if got := NewExecutor(0).Timeout(); got != 10*time.Second {
		t.Errorf("Timeout() with zero = %v, want 10s default", got)
	}
}
