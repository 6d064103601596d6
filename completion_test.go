package lineedit

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompletionSession(t *testing.T) (*Session, *linestate, func(string)) {
	ptyFile, tty := openTestPty(t)
	// completeLine runs inside ReadLine's raw mode; without it the slave's
	// line discipline holds single keystrokes until a newline arrives.
	_, err := setRawMode(int(tty.Fd()))
	require.NoError(t, err)
	s := &Session{
		prompt: "> ",
		cols:   80,
		outw:   io.Discard,
		hist:   newHistory(defaultHistoryMaxLen),
		hotkey: -1,
		inFd:   int(tty.Fd()),
		errFd:  int(tty.Fd()),
	}
	ls := newLinestate(s, "")
	send := func(keys string) {
		_, _ = ptyFile.Write([]byte(keys))
	}
	return s, ls, send
}

func TestCompleteLineNoCandidatesBeeps(t *testing.T) {
	s, ls, _ := newCompletionSession(t)
	s.completionCB = func(string) []string { return nil }
	r, err := ls.completeLine()
	require.NoError(t, err)
	assert.Equal(t, rune(0), r)
}

func TestCompleteLineCyclesAndCommits(t *testing.T) {
	s, ls, send := newCompletionSession(t)
	s.completionCB = func(string) []string {
		return []string{"hello", "help"}
	}

	done := make(chan struct{})
	var r rune
	var err error
	go func() {
		r, err = ls.completeLine()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	send("\t") // cycle to "help"
	time.Sleep(10 * time.Millisecond)
	send(" ") // commit with a non-tab, non-esc byte

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("completeLine did not return")
	}
	require.NoError(t, err)
	assert.Equal(t, rune(' '), r)
	assert.Equal(t, "help", ls.String())
}

func TestCompleteLineEscCancels(t *testing.T) {
	s, ls, send := newCompletionSession(t)
	s.completionCB = func(string) []string {
		return []string{"hello", "help"}
	}

	done := make(chan struct{})
	var r rune
	var err error
	go func() {
		r, err = ls.completeLine()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	send("\t") // cycle to "help" first, so there's a pick to discard
	time.Sleep(10 * time.Millisecond)
	send("\x1b") // bare ESC: nothing follows, cancels

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("completeLine did not return")
	}
	require.NoError(t, err)
	assert.Equal(t, rune(0), r)
	assert.Equal(t, "", ls.String())
}

// TestCompleteLineEscCancelsEvenWithQueuedBytes guards against a cancel
// that only fires when ESC arrives alone: an arrow key sent as one ESC [ A
// burst must still cancel unconditionally, not commit the current pick and
// re-dispatch the rest of the sequence to the main decoder.
func TestCompleteLineEscCancelsEvenWithQueuedBytes(t *testing.T) {
	s, ls, send := newCompletionSession(t)
	s.completionCB = func(string) []string {
		return []string{"hello", "help"}
	}

	done := make(chan struct{})
	var r rune
	var err error
	go func() {
		r, err = ls.completeLine()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	send("\t") // cycle to "help" first, so there's a pick to discard
	time.Sleep(10 * time.Millisecond)
	send("\x1b[A") // ESC immediately followed by more queued bytes

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("completeLine did not return")
	}
	require.NoError(t, err)
	assert.Equal(t, rune(0), r)
	assert.Equal(t, "", ls.String())
}
