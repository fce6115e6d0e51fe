// Package tray provides the menu bar interface: the selected exercise, the
// live repetition count and start/stop/quit controls.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/repcount/internal/exercise"
)

// Tray represents the system tray application.
type Tray struct {
	onStart    func() error
	onStop     func()
	onExercise func(kind exercise.Kind) error
	onSettings func()
	onQuit     func()

	mu       sync.RWMutex
	running  bool
	count    int
	exercise exercise.Kind

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuCount     *systray.MenuItem
	menuExercises map[exercise.Kind]*systray.MenuItem
}

// New creates a Tray showing the given exercise.
func New(kind exercise.Kind) *Tray {
	return &Tray{
		exercise:      kind,
		menuExercises: make(map[exercise.Kind]*systray.MenuItem),
	}
}

// OnStart sets the callback invoked when a workout is started from the menu.
func (t *Tray) OnStart(fn func() error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStart = fn
}

// OnStop sets the callback invoked when the running workout is stopped.
func (t *Tray) OnStop(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStop = fn
}

// OnExercise sets the callback invoked when another exercise is picked.
func (t *Tray) OnExercise(fn func(kind exercise.Kind) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExercise = fn
}

// OnSettings sets the callback function to be called when the dashboard menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("RepCount")
	systray.SetTooltip("RepCount exercise counter")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(false), "Start or stop the workout")
	t.menuCount = systray.AddMenuItem(countTitle(t.exercise, 0), "Repetitions in this workout")
	t.menuCount.Disable()
	systray.AddSeparator()

	menuExercise := systray.AddMenuItem("Exercise", "Choose the exercise")
	clicks := make(chan exercise.Kind)
	for _, kind := range exercise.Kinds() {
		item := menuExercise.AddSubMenuItemCheckbox(string(kind), "", kind == t.exercise)
		t.menuExercises[kind] = item
		go func(kind exercise.Kind, item *systray.MenuItem) {
			for range item.ClickedCh {
				clicks <- kind
			}
		}(kind, item)
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit RepCount")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case kind := <-clicks:
				t.handleExercise(kind)
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.RLock()
	running := t.running
	start, stop := t.onStart, t.onStop
	t.mu.RUnlock()

	// Callbacks run outside the lock; they report back through SetStatus.
	if running {
		if stop != nil {
			stop()
		}
		return
	}
	if start != nil {
		if err := start(); err != nil {
			t.setTooltip("Cannot start: " + err.Error())
		}
	}
}

func (t *Tray) handleExercise(kind exercise.Kind) {
	t.mu.RLock()
	callback := t.onExercise
	t.mu.RUnlock()

	if callback != nil {
		if err := callback(kind); err != nil {
			t.setTooltip("Cannot switch exercise: " + err.Error())
			return
		}
	}
	t.SetStatus(t.isRunning(), kind, 0)
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
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

// SetStatus updates the toggle, the exercise checkmarks and the live count.
func (t *Tray) SetStatus(running bool, kind exercise.Kind, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = running
	t.exercise = kind
	t.count = count

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(running))
	}
	if t.menuCount != nil {
		t.menuCount.SetTitle(countTitle(kind, count))
	}
	for k, item := range t.menuExercises {
		if k == kind {
			item.Check()
		} else {
			item.Uncheck()
		}
		if running {
			item.Disable()
		} else {
			item.Enable()
		}
	}
	if t.menuToggle == nil {
		return
	}
	if running {
		systray.SetTitle(fmt.Sprintf("%d", count))
	} else {
		systray.SetTitle("RepCount")
	}
}

// Count returns the last count shown.
func (t *Tray) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Exercise returns the exercise shown in the menu.
func (t *Tray) Exercise() exercise.Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.exercise
}

func (t *Tray) isRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

func (t *Tray) setTooltip(text string) {
	t.mu.RLock()
	ready := t.menuToggle != nil
	t.mu.RUnlock()
	if ready {
		systray.SetTooltip(text)
	}
}

func toggleTitle(running bool) string {
	if running {
		return "■ Stop Workout"
	}
	return "▶ Start Workout"
}

func countTitle(kind exercise.Kind, count int) string {
	return fmt.Sprintf("%s: %d", kind, count)
}
