package lineedit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/creack/termios/raw"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// CompletionFunc returns candidate completions for the current buffer
// contents. It is called once per Tab press that enters the completion
// sub-mode.
type CompletionFunc func(input string) []string

// Hint is ghost text shown to the right of the cursor, with optional ANSI
// styling.
type Hint struct {
	Text  string
	Color int // ANSI foreground color code, or -1 for none
	Bold  bool
}

// HintsFunc returns the hint to show for the current buffer contents, or
// nil for no hint.
type HintsFunc func(input string) *Hint

// FreeHintsFunc is called with whatever HintsFunc returned, after it has
// been rendered, so a host that allocates per-call hint state can release
// it. It mirrors the source's free-hints callback; Go hosts that don't
// need it can leave it unset.
type FreeHintsFunc func(h *Hint)

// Session is one interactive line-editing session: the file descriptors,
// prompt, terminal geometry, history, and callbacks needed to run
// ReadLine. Two Sessions are fully independent of each other -- unlike the
// linenoise this package is based on, callbacks and history live on the
// Session, not behind process-wide globals.
type Session struct {
	in, out, errw *os.File
	inFd, outFd, errFd int

	outw io.Writer // colorable-wrapped s.out, what refresh output is flushed to

	prompt    string
	cols      int
	multiline bool

	rawMode      bool
	savedTermios *raw.Termios

	hist *history

	completionCB CompletionFunc
	hintsCB      HintsFunc
	freeHintsCB  FreeHintsFunc

	// hotkey, if set, behaves like Enter except the key is appended to
	// the returned line instead of being discarded. It's not part of the
	// core editing model; it lets a menu-style host offer "type foo? for
	// help" without the library needing to know anything about help text.
	hotkey rune

	scanner *bufio.Scanner // lazily created for the non-raw fallback path
}

// NewSession creates an editing session bound to the given file
// descriptors and prompt. Terminal geometry is queried immediately (it is
// not live-refreshed on a later SIGWINCH).
func NewSession(in, out, errw *os.File, prompt string) *Session {
	s := &Session{
		in:     in,
		out:    out,
		errw:   errw,
		inFd:   int(in.Fd()),
		outFd:  int(out.Fd()),
		errFd:  int(errw.Fd()),
		prompt: prompt,
		hist:   newHistory(defaultHistoryMaxLen),
		hotkey: -1,
	}
	s.outw = colorable.NewColorable(out)
	s.cols = getColumns(s.inFd, s.outFd)
	return s
}

// SetPrompt changes the prompt shown before the next ReadLine call.
func (s *Session) SetPrompt(prompt string) {
	s.prompt = prompt
}

// SetMultiline enables or disables multi-line rendering.
func (s *Session) SetMultiline(enabled bool) {
	s.multiline = enabled
}

// SetCompletionCallback registers the Tab-completion callback.
func (s *Session) SetCompletionCallback(fn CompletionFunc) {
	s.completionCB = fn
}

// SetHintsCallback registers the right-hand hint callback.
func (s *Session) SetHintsCallback(fn HintsFunc) {
	s.hintsCB = fn
}

// SetFreeHintsCallback registers the callback invoked on a hint after it
// has been rendered.
func (s *Session) SetFreeHintsCallback(fn FreeHintsFunc) {
	s.freeHintsCB = fn
}

// SetHotkey sets a key that ends editing like Enter but is appended,
// undisplayed, to the returned line -- used by hosts that want a
// "command?" contextual-help convention. A negative rune disables it.
func (s *Session) SetHotkey(key rune) {
	s.hotkey = key
}

func (s *Session) writeRaw(b []byte) {
	_, _ = s.outw.Write(b)
}

func (s *Session) flushOut(o *outBuf) {
	o.flush(s.outw)
}

// ReadLine reads one line of input, editing it interactively if the input
// fd is a supported TTY, falling back to a blocking read otherwise. The
// returned error is nil on success; otherwise it wraps one of the
// sentinel errors in this package (ErrInterrupted, ErrEndOfFile, ErrIO).
func (s *Session) ReadLine(ctx context.Context) (string, error) {
	return s.ReadLineInit(ctx, "")
}

// ReadLineInit is ReadLine with the edit buffer pre-filled with init and
// the cursor placed at the end of it, for hosts that want to hand back a
// rejected or partially-edited command line for further editing.
func (s *Session) ReadLineInit(ctx context.Context, init string) (string, error) {
	if !isatty.IsTerminal(uintptr(s.inFd)) {
		return s.readBasic()
	}
	if unsupportedTerm() {
		fmt.Fprint(s.outw, s.prompt)
		return s.readBasic()
	}
	return s.readLineRaw(ctx, init)
}

// readLineRaw is the interactive path: enable raw mode, run the edit loop,
// always restore cooked mode before returning.
func (s *Session) readLineRaw(ctx context.Context, init string) (string, error) {
	if err := s.enableRawMode(); err != nil {
		return "", err
	}
	defer s.disableRawMode()

	ls := newLinestate(s, init)
	s.hist.add(ls.String())

	line, err := s.editLoop(ctx, ls)
	fmt.Fprint(s.outw, "\r\n")
	if err != nil {
		return "", wrapReadErr(err)
	}
	return line, nil
}

func wrapReadErr(err error) error {
	switch {
	case errors.Is(err, ErrInterrupted):
		return ErrInterrupted
	case errors.Is(err, ErrEndOfFile):
		return ErrEndOfFile
	default:
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
}

func (s *Session) enableRawMode() error {
	mode, err := setRawMode(s.inFd)
	if err != nil {
		return err
	}
	s.savedTermios = mode
	s.rawMode = true
	return nil
}

func (s *Session) disableRawMode() {
	if !s.rawMode {
		return
	}
	_ = restoreMode(s.inFd, s.savedTermios)
	s.rawMode = false
}

// Restore is idempotent and disables raw mode if it's currently engaged.
// Hosts should register it (directly or via a defer in their own exit
// path) so a crash mid-edit doesn't leave the TTY scrambled.
func (s *Session) Restore() {
	s.disableRawMode()
}

// Close releases the session, restoring the terminal if needed.
func (s *Session) Close() error {
	s.Restore()
	return nil
}

// ClearBuffer is a no-op at the session level: the edit buffer lives only
// for the duration of one ReadLine call and is always created empty. It
// exists so hosts that hold onto a Session between ReadLine calls have an
// explicit way to say "I don't want the next prompt pre-filled", matching
// the source's reset-on-entry behavior.
func (s *Session) ClearBuffer() {}

// ClearScreen clears the terminal and homes the cursor.
func (s *Session) ClearScreen() {
	fmt.Fprint(s.outw, clearScreenSeq)
}

// HistoryAdd adds line to the history, returning false if it was
// suppressed as a duplicate of the current newest entry or if the history
// capacity is zero.
func (s *Session) HistoryAdd(line string) bool {
	return s.hist.add(line)
}

// HistorySetMaxLen changes the history capacity, trimming the oldest
// entries if necessary.
func (s *Session) HistorySetMaxLen(n int) error {
	return s.hist.setMaxLen(n)
}

// HistorySave writes the history to path, one entry per line, with file
// mode 0600.
func (s *Session) HistorySave(path string) error {
	return s.hist.save(path)
}

// HistoryLoad reads history entries from path. A missing file is an error
// wrapping ErrHistoryIO and leaves the history unchanged.
func (s *Session) HistoryLoad(path string) error {
	return s.hist.load(path)
}

// HistoryList returns the history entries, oldest first.
func (s *Session) HistoryList() []string {
	return s.hist.list()
}

// historyNext/historyPrev implement the up/down browsing semantics: the
// in-progress edit is stashed into the slot it came from before moving,
// so resuming the walk (or landing back on the live edit) doesn't lose
// it.
func (s *Session) historyNext(ls *linestate) string {
	if s.hist.len() == 0 {
		return ls.String()
	}
	s.hist.set(ls.historyIdx, ls.String())
	ls.historyIdx--
	if ls.historyIdx < 0 {
		ls.historyIdx = 0
	}
	return s.hist.get(ls.historyIdx)
}

func (s *Session) historyPrev(ls *linestate) string {
	if s.hist.len() == 0 {
		return ls.String()
	}
	s.hist.set(ls.historyIdx, ls.String())
	ls.historyIdx++
	if ls.historyIdx >= s.hist.len() {
		ls.historyIdx = s.hist.len() - 1
	}
	return s.hist.get(ls.historyIdx)
}

// Loop puts the terminal in raw mode and calls fn repeatedly until it
// returns true (loop completed, Loop returns true) or the given exit key
// is read from the input fd (loop cancelled, Loop returns false). It's a
// convenience for hosts that want a "press ctrl-d to stop monitoring"
// pattern without writing their own raw-mode bookkeeping.
func (s *Session) Loop(fn func() bool, exitKey rune) bool {
	if err := s.enableRawMode(); err != nil {
		return false
	}
	defer s.disableRawMode()

	for {
		c, ok, err := readByteTimeout(s.inFd, &pollTimeout)
		if err == nil && ok && rune(c) == exitKey {
			return false
		}
		if fn() {
			return true
		}
	}
}

// PrintKeyCodes is a debug helper: it enables raw mode and echoes the hex
// code of every key pressed until the last four bytes typed spell "quit".
func (s *Session) PrintKeyCodes(ctx context.Context) error {
	fmt.Fprint(s.outw, "Key code debugging mode. Press keys to see codes. Type 'quit' to exit.\r\n")
	if err := s.enableRawMode(); err != nil {
		return err
	}
	defer s.disableRawMode()

	var last4 [4]byte
	for {
		c, err := readKeyByte(ctx, s.inFd)
		if err != nil {
			return wrapReadErr(err)
		}
		var display string
		switch {
		case unicode.IsPrint(rune(c)):
			display = string(rune(c))
		case c == keyEnter:
			display = "\\r"
		case c == keyTab:
			display = "\\t"
		case c == keyEsc:
			display = "ESC"
		case c == keyBS:
			display = "BS"
		default:
			display = "?"
		}
		fmt.Fprintf(s.outw, "'%s' 0x%02x (%d)\r\n", display, c, c)

		copy(last4[:], last4[1:])
		last4[3] = c
		if string(last4[:]) == "quit" {
			return nil
		}
	}
}
