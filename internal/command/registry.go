// Package command parses short chat commands and dispatches them to handlers.
//
// Commands live in a table keyed by canonical ID. Aliases are a separate lookup layer
// that resolves to a canonical ID, so one handler can answer to several spellings.
// Input that matches nothing yields no response, except the reserved word "help"
// (any case), which lists every registered command.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the registry and handlers.
var (
	ErrDuplicate      = errors.New("command already registered")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("missing parameters")
)

// HelpWord is the reserved input that produces the command listing.
const HelpWord = "help"

// Kind tells which handler a command carries.
type Kind int

const (
	// Simple commands ignore everything after the command token.
	Simple Kind = iota
	// Parameterized commands receive the remaining tokens.
	Parameterized
)

func (k Kind) String() string {
	if k == Parameterized {
		return "parameterized"
	}
	return "simple"
}

// Field is one titled entry of a Response.
type Field struct {
	Name  string
	Value string
}

// Response is what a command sends back to the channel.
type Response struct {
	Title  string
	Text   string
	Fields []Field
}

// Empty reports whether there is nothing to send.
func (r Response) Empty() bool {
	return r.Title == "" && r.Text == "" && len(r.Fields) == 0
}

// SimpleHandler handles a command without parameters.
type SimpleHandler func(ctx context.Context) (Response, error)

// ParamHandler handles a command with parameters.
type ParamHandler func(ctx context.Context, args []string) (Response, error)

// Command is a registered command.
type Command struct {
	ID          string
	Params      string
	Description string
	Kind        Kind

	simple SimpleHandler
	param  ParamHandler
}

// NewSimple builds a command without parameters.
func NewSimple(id, description string, h SimpleHandler) Command {
	return Command{ID: id, Description: description, Kind: Simple, simple: h}
}

// NewParameterized builds a command that takes the tokens after it. params is the
// usage string shown in help, such as "<sound>".
func NewParameterized(id, params, description string, h ParamHandler) Command {
	return Command{ID: id, Params: params, Description: description, Kind: Parameterized, param: h}
}

func (c Command) run(ctx context.Context, args []string) (Response, error) {
	switch c.Kind {
	case Parameterized:
		return c.param(ctx, args)
	default:
		return c.simple(ctx)
	}
}

// Registry maps command tokens to handlers. Build it before dispatching; it is not
// safe to register concurrently with Dispatch.
type Registry struct {
	commands map[string]Command
	aliases  map[string]string
	order    []string
	// aliasOrder keeps the aliases of each ID in registration order for help.
	aliasOrder map[string][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]Command),
		aliases:    make(map[string]string),
		aliasOrder: make(map[string][]string),
	}
}

// Register adds a command under its canonical ID.
func (r *Registry) Register(c Command) error {
	if c.ID == "" || strings.ContainsAny(c.ID, " \t\n") {
		return fmt.Errorf("invalid command id %q", c.ID)
	}
	if (c.Kind == Simple && c.simple == nil) || (c.Kind == Parameterized && c.param == nil) {
		return fmt.Errorf("command %q has no handler", c.ID)
	}
	if r.taken(c.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicate, c.ID)
	}

	r.commands[c.ID] = c
	r.order = append(r.order, c.ID)
	return nil
}

// Alias makes alias resolve to the command registered as id.
func (r *Registry) Alias(alias, id string) error {
	if _, ok := r.commands[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	if alias == "" || strings.ContainsAny(alias, " \t\n") {
		return fmt.Errorf("invalid alias %q", alias)
	}
	if r.taken(alias) {
		return fmt.Errorf("%w: %s", ErrDuplicate, alias)
	}

	r.aliases[alias] = id
	r.aliasOrder[id] = append(r.aliasOrder[id], alias)
	return nil
}

func (r *Registry) taken(token string) bool {
	if _, ok := r.commands[token]; ok {
		return true
	}
	_, ok := r.aliases[token]
	return ok
}

// Resolve looks up a command token, following aliases. Matching is exact.
func (r *Registry) Resolve(token string) (Command, bool) {
	if id, ok := r.aliases[token]; ok {
		token = id
	}
	c, ok := r.commands[token]
	return c, ok
}

// Dispatch runs the command named by the first whitespace-separated token of input.
// matched is false when nothing handled the input; the caller then does nothing.
func (r *Registry) Dispatch(ctx context.Context, input string) (resp Response, matched bool, err error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return Response{}, false, nil
	}

	c, ok := r.Resolve(parts[0])
	if !ok {
		if strings.EqualFold(parts[0], HelpWord) {
			return r.Help(), true, nil
		}
		return Response{}, false, nil
	}

	resp, err = c.run(ctx, parts[1:])
	return resp, true, err
}

// Help lists every command and alias with its parameters and description.
func (r *Registry) Help() Response {
	resp := Response{Title: "Commands, Parameters and Description"}
	for _, id := range r.order {
		c := r.commands[id]
		names := append([]string{id}, r.aliasOrder[id]...)
		for _, name := range names {
			resp.Fields = append(resp.Fields, Field{
				Name:  strings.TrimSpace(name + " " + c.Params),
				Value: c.Description,
			})
		}
	}
	return resp
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.commands[id])
	}
	return out
}
