// Package main is the scare plugin. It plays a sound file through whichever command
// line audio player the host has, to chase the cat off the counter.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Trigger string          `json:"trigger"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// PlayParams selects the sound to play.
type PlayParams struct {
	Sound string `json:"sound"`
}

// soundDir holds the bundled sounds, relative to the plugin directory.
const soundDir = "sounds"

// players are tried in order; the first one on PATH wins.
var players = []struct {
	name string
	args []string
}{
	{name: "afplay"},
	{name: "paplay"},
	{name: "aplay", args: []string{"-q"}},
	{name: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{name: "mpv", args: []string{"--no-video", "--really-quiet"}},
}

var errNoPlayer = errors.New("no audio player found")

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "play":
		played, err := handlePlay(req.Params, exec.LookPath)
		if err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
		writeSuccessResponse(map[string]string{"played": played, "trigger": req.Trigger})
	case "list":
		sounds, err := listSounds(soundDir)
		if err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
		writeSuccessResponse(map[string][]string{"sounds": sounds})
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
	}
}

// handlePlay resolves the sound and plays it to completion.
func handlePlay(params json.RawMessage, lookPath func(string) (string, error)) (string, error) {
	var p PlayParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return "", fmt.Errorf("failed to parse params: %w", err)
		}
	}

	path, err := resolveSound(soundDir, p.Sound)
	if err != nil {
		return "", err
	}

	cmd, err := buildCommand(path, lookPath)
	if err != nil {
		return "", err
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return filepath.Base(path), nil
}

// resolveSound maps a sound name to a file inside dir. Names may not escape dir.
func resolveSound(dir, sound string) (string, error) {
	if sound == "" {
		return "", errors.New("sound is required")
	}
	if filepath.Base(sound) != sound || sound == "." || sound == ".." {
		return "", fmt.Errorf("invalid sound name %q", sound)
	}

	path := filepath.Join(dir, sound)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("sound %q not found", sound)
	}
	return path, nil
}

// buildCommand picks the first available player for path.
func buildCommand(path string, lookPath func(string) (string, error)) (*exec.Cmd, error) {
	for _, p := range players {
		bin, err := lookPath(p.name)
		if err != nil {
			continue
		}
		args := append(append([]string{}, p.args...), path)
		return exec.Command(bin, args...), nil
	}
	return nil, errNoPlayer
}

// listSounds returns the audio files bundled in dir.
func listSounds(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sounds []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".wav", ".mp3", ".ogg", ".aiff":
			sounds = append(sounds, e.Name())
		}
	}
	return sounds, nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response with data to stdout.
func writeSuccessResponse(data any) {
	raw, _ := json.Marshal(data)
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: raw})
}
