// Package history records document changes for undo and redo.
//
// Every change the engine applies is pushed as a Command. Changes made
// inside a group (BeginGroup/EndGroup, or Transaction) are combined into a
// single CompoundCommand, so one editor command undoes as one unit.
//
// A HookCommand changes nothing. Its Undo runs a callback, which lets a
// client learn that the user has undone past the point where the hook was
// pushed. The template engine uses this to cancel an expansion when its
// insertion is undone.
package history
