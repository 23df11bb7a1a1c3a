// Package ui implements the GDS.FM terminal status surface with Bubble Tea.
//
// The model never touches core state. A tick re-reads the state.Store
// snapshot, and every key press that changes something is forwarded to an
// Intents implementation which posts the work onto the owner loop. The
// application ends the program by sending QuitMsg once termination has been
// approved, so an install that is still running can finish first.
//
// The status icon is a bubbles spinner whose frames and rate come from
// playback.AnimationFor; the menu is rebuilt from the snapshot on every
// render.
package ui
