package lineedit

import (
	"context"
	"fmt"
)

// Key byte codes the decoder recognizes directly (control characters and
// the two editing keys with dedicated ASCII codes).
const (
	keyCtrlA = 0x01
	keyCtrlB = 0x02
	keyCtrlC = 0x03
	keyCtrlD = 0x04
	keyCtrlE = 0x05
	keyCtrlF = 0x06
	keyCtrlH = 0x08
	keyTab   = 0x09
	keyCtrlK = 0x0b
	keyCtrlL = 0x0c
	keyEnter = 0x0d
	keyCtrlN = 0x0e
	keyCtrlP = 0x10
	keyCtrlT = 0x14
	keyCtrlU = 0x15
	keyCtrlW = 0x17
	keyEsc   = 0x1b
	keyBS    = 0x7f
)

// pollTimeout bounds how long a single poll of the input fd blocks before
// the main loop rechecks ctx.Err(). It's the only concession this editor
// makes toward cancellation: edits happen between bytes, never mid-read.
var pollTimeout = timeout20ms

// readKeyByte reads one byte from fd, polling in pollTimeout slices so the
// caller's context can cancel a ReadLine that's sitting idle at the
// prompt.
func readKeyByte(ctx context.Context, fd int) (byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		c, ok, err := readByteTimeout(fd, &pollTimeout)
		if err != nil {
			return 0, err
		}
		if ok {
			return c, nil
		}
	}
}

// editLoop is the keystroke dispatcher: it reads bytes from ls.s.inFd,
// decodes escape sequences, and mutates ls until the line is finished
// (Enter) or abandoned (Ctrl-C, Ctrl-D on empty buffer, or an I/O error).
func (s *Session) editLoop(ctx context.Context, ls *linestate) (string, error) {
	for {
		c, err := readKeyByte(ctx, s.inFd)
		if err != nil {
			s.hist.pop(-1)
			return "", fmt.Errorf("read key: %w", err)
		}

		if c == keyTab && s.completionCB != nil {
			r, err := ls.completeLine()
			if err != nil {
				s.hist.pop(-1)
				return "", fmt.Errorf("completion: %w", err)
			}
			if r == 0 {
				continue
			}
			c = byte(r)
		}

		if c == keyEnter || (s.hotkey >= 0 && rune(c) == s.hotkey) {
			s.hist.pop(-1)
			if s.multiline {
				ls.moveEnd()
			}
			if s.hintsCB != nil {
				hcb := s.hintsCB
				s.hintsCB = nil
				ls.refreshLine()
				s.hintsCB = hcb
			}
			if c == keyEnter {
				return ls.String(), nil
			}
			// Hotkey: appended to the returned line but never inserted
			// into (or displayed in) the edit buffer itself.
			return ls.String() + string(rune(c)), nil
		}

		switch c {
		case keyCtrlC:
			s.hist.pop(-1)
			return "", ErrInterrupted

		case keyBS, keyCtrlH:
			ls.backspace()

		case keyCtrlD:
			if len(ls.buf) > 0 {
				ls.deleteForward()
			} else {
				s.hist.pop(-1)
				return "", ErrEndOfFile
			}

		case keyCtrlA:
			ls.moveHome()
		case keyCtrlB:
			ls.moveLeft()
		case keyCtrlE:
			ls.moveEnd()
		case keyCtrlF:
			ls.moveRight()
		case keyCtrlK:
			ls.killToEnd()
		case keyCtrlL:
			fdWrite(s.outFd, clearScreenSeq)
			ls.refreshLine()
		case keyCtrlN:
			ls.set(s.historyNext(ls))
		case keyCtrlP:
			ls.set(s.historyPrev(ls))
		case keyCtrlT:
			ls.transpose()
		case keyCtrlU:
			ls.killLine()
		case keyCtrlW:
			ls.killPrevWord()

		case keyEsc:
			if err := s.decodeEscape(ls); err != nil {
				s.hist.pop(-1)
				return "", fmt.Errorf("escape sequence: %w", err)
			}

		default:
			if c >= 0x20 {
				ls.insert(c)
			}
		}
	}
}

// decodeEscape reads the one or two bytes following an ESC and dispatches
// the corresponding editing operation. Unknown sequences are silently
// discarded, as the source's non-exhaustive decoder does.
func (s *Session) decodeEscape(ls *linestate) error {
	if wouldBlock(s.inFd, &timeout20ms) {
		// A bare Escape with nothing following: ignored.
		return nil
	}
	s0, ok, err := readByteTimeout(s.inFd, &timeout20ms)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s1, ok, err := readByteTimeout(s.inFd, &timeout20ms)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	switch s0 {
	case '[':
		if s1 >= '0' && s1 <= '9' {
			s2, ok, err := readByteTimeout(s.inFd, &timeout20ms)
			if err != nil {
				return err
			}
			if ok && s2 == '~' && s1 == '3' {
				ls.deleteForward()
			}
			return nil
		}
		switch s1 {
		case 'A':
			ls.set(s.historyPrev(ls))
		case 'B':
			ls.set(s.historyNext(ls))
		case 'C':
			ls.moveRight()
		case 'D':
			ls.moveLeft()
		case 'H':
			ls.moveHome()
		case 'F':
			ls.moveEnd()
		}
	case 'O':
		switch s1 {
		case 'H':
			ls.moveHome()
		case 'F':
			ls.moveEnd()
		}
	}
	return nil
}
