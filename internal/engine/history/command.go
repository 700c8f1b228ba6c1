package history

import (
	"fmt"

	"github.com/dshills/tabstop/internal/engine/buffer"
)

// Command is a change that can be reapplied and reverted.
type Command interface {
	// Execute applies the command.
	Execute(doc *buffer.Document) error

	// Undo reverses the command.
	Undo(doc *buffer.Document) error

	// Description returns a human-readable description of the command.
	Description() string
}

// ChangeCommand replays a single applied document change.
type ChangeCommand struct {
	Change buffer.Change
	Name   string
}

// NewChangeCommand wraps an applied change.
func NewChangeCommand(name string, change buffer.Change) *ChangeCommand {
	return &ChangeCommand{Change: change, Name: name}
}

// Execute reapplies the change.
func (c *ChangeCommand) Execute(doc *buffer.Document) error {
	if _, err := doc.ApplyEdit(c.Change.Edit()); err != nil {
		return fmt.Errorf("redo %s: %w", c.Change.Range, err)
	}
	return nil
}

// Undo applies the inverse change.
func (c *ChangeCommand) Undo(doc *buffer.Document) error {
	if _, err := doc.ApplyEdit(c.Change.Invert().Edit()); err != nil {
		return fmt.Errorf("undo %s: %w", c.Change.NewRange, err)
	}
	return nil
}

// Description returns the command name.
func (c *ChangeCommand) Description() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Change.Edit().String()
}

// HookCommand performs no edit. Undo calls OnUndo and Execute calls OnRedo
// when set.
type HookCommand struct {
	Name   string
	OnUndo func()
	OnRedo func()
}

// Execute calls OnRedo.
func (c *HookCommand) Execute(*buffer.Document) error {
	if c.OnRedo != nil {
		c.OnRedo()
	}
	return nil
}

// Undo calls OnUndo.
func (c *HookCommand) Undo(*buffer.Document) error {
	if c.OnUndo != nil {
		c.OnUndo()
	}
	return nil
}

// Description returns the hook name.
func (c *HookCommand) Description() string {
	return c.Name
}

// CompoundCommand groups multiple commands into one undo unit.
type CompoundCommand struct {
	Name     string
	Commands []Command
}

// Execute runs all commands in order.
// If one fails, the ones already executed are undone.
func (c *CompoundCommand) Execute(doc *buffer.Document) error {
	for i, cmd := range c.Commands {
		if err := cmd.Execute(doc); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.Commands[j].Undo(doc)
			}
			return err
		}
	}
	return nil
}

// Undo reverses all commands in reverse order.
func (c *CompoundCommand) Undo(doc *buffer.Document) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(doc); err != nil {
			return err
		}
	}
	return nil
}

// Description returns the group name.
func (c *CompoundCommand) Description() string {
	return c.Name
}
