package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/catfence/internal/alert"
)

type fakeController struct {
	paused bool
	status Status
}

func (c *fakeController) SetPaused(paused bool) { c.paused = paused }

func (c *fakeController) Status() Status {
	s := c.status
	s.Paused = c.paused
	return s
}

type fakeDeterrent struct {
	triggers  []string
	sounds    []string
	err       error
	installed []string
	listErr   error
}

func (d *fakeDeterrent) Sounds(context.Context) ([]string, error) {
	return d.installed, d.listErr
}

func (d *fakeDeterrent) Run(_ context.Context, trigger, sound string) error {
	d.triggers = append(d.triggers, trigger)
	d.sounds = append(d.sounds, sound)
	return d.err
}

func TestDefaults_TableFlip(t *testing.T) {
	det := &fakeDeterrent{}
	r := Defaults(&fakeController{}, det)

	for _, input := range []string{TableFlip, TableFlipAlias, TableFlipAlias + " ┻━┻"} {
		resp, matched, err := r.Dispatch(context.Background(), input)
		if err != nil || !matched {
			t.Fatalf("Dispatch(%q) = %v, %v", input, matched, err)
		}
		if resp.Empty() {
			t.Errorf("Dispatch(%q) should acknowledge", input)
		}
	}

	if len(det.triggers) != 3 {
		t.Fatalf("deterrent ran %d times, want 3", len(det.triggers))
	}
	for i, sound := range det.sounds {
		if sound != "" || det.triggers[i] != TableFlip {
			t.Errorf("run %d = %q/%q, want default sound from %s", i, det.triggers[i], sound, TableFlip)
		}
	}
}

func TestDefaults_Play(t *testing.T) {
	det := &fakeDeterrent{installed: []string{"hiss.wav", "tableflip.wav"}}
	r := Defaults(&fakeController{}, det)

	if _, _, err := r.Dispatch(context.Background(), "/play hiss.wav"); err != nil {
		t.Fatalf("Dispatch(/play hiss.wav) error = %v", err)
	}
	if len(det.sounds) != 1 || det.sounds[0] != "hiss.wav" || det.triggers[0] != Play {
		t.Errorf("deterrent got %v/%v", det.triggers, det.sounds)
	}
}

func TestDefaults_Play_ListsSounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		installed []string
		wantText  string
		wantField string
	}{
		{
			name:      "no sound",
			input:     "/play",
			installed: []string{"hiss.wav", "tableflip.wav"},
			wantText:  "Usage: /play <sound>",
			wantField: "hiss.wav, tableflip.wav",
		},
		{
			name:      "unknown sound",
			input:     "/play bark.wav",
			installed: []string{"tableflip.wav"},
			wantText:  "Unknown sound bark.wav.",
			wantField: "tableflip.wav",
		},
		{
			name:      "nothing installed",
			input:     "/play",
			wantText:  "Usage: /play <sound>",
			wantField: "none installed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := &fakeDeterrent{installed: tt.installed}
			r := Defaults(&fakeController{}, det)

			resp, matched, err := r.Dispatch(context.Background(), tt.input)
			if err != nil || !matched {
				t.Fatalf("Dispatch(%q) = %v, %v", tt.input, matched, err)
			}
			if resp.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", resp.Text, tt.wantText)
			}
			if len(resp.Fields) != 1 || resp.Fields[0].Name != "Sounds" || resp.Fields[0].Value != tt.wantField {
				t.Errorf("Fields = %+v, want Sounds: %q", resp.Fields, tt.wantField)
			}
			if len(det.triggers) != 0 {
				t.Errorf("deterrent ran for %q: %v", tt.input, det.sounds)
			}
		})
	}
}

func TestDefaults_Play_UnlistedSoundWhenListEmpty(t *testing.T) {
	det := &fakeDeterrent{}
	r := Defaults(&fakeController{}, det)

	if _, _, err := r.Dispatch(context.Background(), "/play hiss.wav"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(det.sounds) != 1 || det.sounds[0] != "hiss.wav" {
		t.Errorf("deterrent got %v, want hiss.wav passed through", det.sounds)
	}
}

func TestDefaults_Play_ListFailure(t *testing.T) {
	dirGone := errors.New("sounds dir unreadable")
	r := Defaults(&fakeController{}, &fakeDeterrent{listErr: dirGone})

	if _, _, err := r.Dispatch(context.Background(), "/play"); !errors.Is(err, dirGone) {
		t.Errorf("Dispatch() error = %v, want %v", err, dirGone)
	}
}

func TestDefaults_Play_NoDeterrent(t *testing.T) {
	r := Defaults(&fakeController{}, nil)

	_, matched, err := r.Dispatch(context.Background(), "/play")
	if !matched || !errors.Is(err, ErrUsage) {
		t.Errorf("Dispatch(/play) = %v, %v; want ErrUsage", matched, err)
	}
}

func TestDefaults_DeterrentFailure(t *testing.T) {
	speakerGone := errors.New("no speaker")
	r := Defaults(&fakeController{}, &fakeDeterrent{err: speakerGone})

	if _, _, err := r.Dispatch(context.Background(), TableFlip); !errors.Is(err, speakerGone) {
		t.Errorf("Dispatch() error = %v, want %v", err, speakerGone)
	}
}

func TestDefaults_NoDeterrent(t *testing.T) {
	r := Defaults(&fakeController{}, nil)

	resp, matched, err := r.Dispatch(context.Background(), TableFlip)
	if err != nil || !matched {
		t.Fatalf("Dispatch() = %v, %v", matched, err)
	}
	if !strings.Contains(resp.Text, "no deterrent") {
		t.Errorf("Dispatch() text = %q", resp.Text)
	}
}

func TestDefaults_PauseResumeStatus(t *testing.T) {
	ctrl := &fakeController{status: Status{
		State:     "Occupied",
		Counters:  alert.CounterSnapshot{Frames: 120, Fired: 3, Delivered: 2, Failed: 1},
		LastAlert: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Uptime:    2*time.Minute + 300*time.Millisecond,
	}}
	r := Defaults(ctrl, nil)
	ctx := context.Background()

	if _, _, err := r.Dispatch(ctx, Pause); err != nil || !ctrl.paused {
		t.Fatalf("Dispatch(/pause) err = %v, paused = %v", err, ctrl.paused)
	}

	resp, _, err := r.Dispatch(ctx, StatusCmd)
	if err != nil {
		t.Fatalf("Dispatch(/status) error = %v", err)
	}
	if resp.Title != "Room Status: Occupied" {
		t.Errorf("status title = %q", resp.Title)
	}
	fields := map[string]string{}
	for _, f := range resp.Fields {
		fields[f.Name] = f.Value
	}
	if fields["Mode"] != "paused" {
		t.Errorf("Mode = %q, want paused", fields["Mode"])
	}
	if fields["Frames"] != "120" {
		t.Errorf("Frames = %q", fields["Frames"])
	}
	if fields["Alerts"] != "3 fired, 2 delivered, 1 failed" {
		t.Errorf("Alerts = %q", fields["Alerts"])
	}
	if fields["Uptime"] != "2m0s" {
		t.Errorf("Uptime = %q", fields["Uptime"])
	}

	if _, _, err := r.Dispatch(ctx, Resume); err != nil || ctrl.paused {
		t.Fatalf("Dispatch(/resume) err = %v, paused = %v", err, ctrl.paused)
	}
	resp, _, _ = r.Dispatch(ctx, StatusCmd)
	for _, f := range resp.Fields {
		if f.Name == "Mode" && f.Value != "watching" {
			t.Errorf("Mode after resume = %q", f.Value)
		}
	}
}

func TestDefaults_HelpListsEverything(t *testing.T) {
	r := Defaults(&fakeController{}, nil)

	resp, matched, _ := r.Dispatch(context.Background(), "help")
	if !matched {
		t.Fatal("help should match")
	}

	names := map[string]bool{}
	for _, f := range resp.Fields {
		names[f.Name] = true
	}
	for _, want := range []string{TableFlip, TableFlipAlias, Play + " <sound>", StatusCmd, Pause, Resume} {
		if !names[want] {
			t.Errorf("help is missing %q (have %v)", want, names)
		}
	}
}
