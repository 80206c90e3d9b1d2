package terminal

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tonewire/internal/itc"
)

// KeyCode identifies a key independent of the terminal library.
type KeyCode int

// Key codes.
const (
	KeyNone KeyCode = iota
	KeyRune
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyTab
	KeyBacktab
	KeyPageUp
	KeyPageDown
	KeyCtrlC
)

// Key is a key press.
type Key struct {
	Code KeyCode
	Rune rune
	// Shift is set when shift was held with a non-rune key.
	Shift bool
}

// KeyAction carries key presses from the input goroutine to the logic domain.
var KeyAction = itc.NewAction[Key]("terminal.key")

// convertKey maps a tcell key event; ok is false for keys the instrument ignores.
func convertKey(ev *tcell.EventKey) (Key, bool) {
	k := Key{Shift: ev.Modifiers()&tcell.ModShift != 0}
	switch ev.Key() {
	case tcell.KeyRune:
		k.Code, k.Rune = KeyRune, ev.Rune()
	case tcell.KeyUp:
		k.Code = KeyUp
	case tcell.KeyDown:
		k.Code = KeyDown
	case tcell.KeyLeft:
		k.Code = KeyLeft
	case tcell.KeyRight:
		k.Code = KeyRight
	case tcell.KeyEnter:
		k.Code = KeyEnter
	case tcell.KeyEscape:
		k.Code = KeyEscape
	case tcell.KeyTab:
		k.Code = KeyTab
	case tcell.KeyBacktab:
		k.Code = KeyBacktab
	case tcell.KeyPgUp:
		k.Code = KeyPageUp
	case tcell.KeyPgDn:
		k.Code = KeyPageDown
	case tcell.KeyCtrlC:
		k.Code = KeyCtrlC
	default:
		return Key{}, false
	}
	return k, true
}
