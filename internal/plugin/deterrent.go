package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrUnsupportedAction is returned when the deterrent plugin does not declare the
// configured action.
var ErrUnsupportedAction = errors.New("action not supported by plugin")

// DeterrentOptions selects the plugin and defaults used by a Deterrent.
type DeterrentOptions struct {
	Plugin string
	Action string
	Sound  string
}

// Deterrent runs the configured deterrent plugin on request.
type Deterrent struct {
	manager  *Manager
	executor *Executor
	opts     DeterrentOptions
	log      *zap.Logger
}

type soundParams struct {
	Sound string `json:"sound"`
}

// NewDeterrent creates a Deterrent backed by an already discovered manager.
func NewDeterrent(manager *Manager, executor *Executor, opts DeterrentOptions, log *zap.Logger) *Deterrent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deterrent{manager: manager, executor: executor, opts: opts, log: log}
}

// Run executes the deterrent. An empty sound uses the configured default. A plugin
// that answers with success=false is reported as an error.
func (d *Deterrent) Run(ctx context.Context, trigger, sound string) error {
	plugin, err := d.manager.Get(d.opts.Plugin)
	if err != nil {
		return fmt.Errorf("deterrent %q: %w", d.opts.Plugin, err)
	}
	if !plugin.Manifest.Supports(d.opts.Action) {
		return fmt.Errorf("deterrent %q action %q: %w", d.opts.Plugin, d.opts.Action, ErrUnsupportedAction)
	}

	if sound == "" {
		sound = d.opts.Sound
	}
	params, err := json.Marshal(soundParams{Sound: sound})
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	resp, err := d.executor.Execute(ctx, plugin, &Request{
		Action:  d.opts.Action,
		Trigger: trigger,
		Params:  params,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("deterrent %q: %s", d.opts.Plugin, resp.Error)
	}

	d.log.Info("deterrent played",
		zap.String("plugin", d.opts.Plugin),
		zap.String("trigger", trigger),
		zap.String("sound", sound),
	)
	return nil
}

// ListAction is the optional plugin action that reports the installed sounds.
const ListAction = "list"

// Sounds returns the sounds the deterrent can play. A plugin that supports the list
// action is asked for the files it actually has; otherwise the manifest is used.
func (d *Deterrent) Sounds(ctx context.Context) ([]string, error) {
	plugin, err := d.manager.Get(d.opts.Plugin)
	if err != nil {
		return nil, fmt.Errorf("deterrent %q: %w", d.opts.Plugin, err)
	}
	if !plugin.Manifest.Supports(ListAction) {
		return plugin.Manifest.Sounds, nil
	}

	resp, err := d.executor.Execute(ctx, plugin, &Request{Action: ListAction})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("deterrent %q: %s", d.opts.Plugin, resp.Error)
	}

	var data struct {
		Sounds []string `json:"sounds"`
	}
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, fmt.Errorf("deterrent %q: bad sound list: %w", d.opts.Plugin, err)
		}
	}
	return data.Sounds, nil
}
