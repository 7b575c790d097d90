// Package tray provides the system tray menu: pause/resume watching, the last
// alert, and quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(watching bool)
	onQuit   func()
	watching bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuLastAlert *systray.MenuItem
}

// New creates a new Tray; watching is on by default.
func New() *Tray {
	return &Tray{
		watching: true,
	}
}

// OnToggle sets the callback run when watching is paused or resumed from the menu.
func (t *Tray) OnToggle(fn func(watching bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback run when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("catfence")
	systray.SetTooltip("catfence motion watcher")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.watching), "Pause or resume watching")
	systray.AddSeparator()
	t.menuLastAlert = systray.AddMenuItem("Last alert: none", "Most recent alert")
	t.menuLastAlert.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit catfence")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.Toggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// Toggle flips between watching and paused, updates the menu and runs the callback.
func (t *Tray) Toggle() {
	t.mu.Lock()
	t.watching = !t.watching
	watching := t.watching
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(watching))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(watching)
	}
}

// SetWatching syncs the menu with a pause or resume made elsewhere, such as a chat
// command. The toggle callback is not run.
func (t *Tray) SetWatching(watching bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.watching = watching
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(watching))
	}
}

func toggleTitle(watching bool) string {
	if watching {
		return "● Watching"
	}
	return "○ Paused"
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastAlert updates the last alert line in the menu.
func (t *Tray) SetLastAlert(text string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastAlert == nil {
		return
	}
	if text == "" {
		text = "none"
	}
	t.menuLastAlert.SetTitle("Last alert: " + text)
}

// IsWatching returns whether watching is on.
func (t *Tray) IsWatching() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.watching
}
