package lineedit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/creack/termios/raw"
	"github.com/deadsy/go-fdset"
	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// defaultCols is used when the terminal's width can't be determined by
// either the ioctl or the cursor-report probe.
const defaultCols = 80

var unsupportedTerms = map[string]bool{
	"dumb":   true,
	"cons25": true,
	"emacs":  true,
}

// unsupportedTerm reports whether $TERM is one we know we can't drive with
// raw-mode editing (ANSI cursor sequences go nowhere useful).
func unsupportedTerm() bool {
	return unsupportedTerms[strings.ToLower(os.Getenv("TERM"))]
}

// setRawMode snapshots the current termios for fd and applies the raw-mode
// attributes the editor needs: no line buffering, no echo, no signals, one
// byte at a time. It fails with ErrNotATerminal if fd isn't a TTY.
func setRawMode(fd int) (*raw.Termios, error) {
	if !isatty.IsTerminal(uintptr(fd)) {
		return nil, fmt.Errorf("fd %d: %w", fd, ErrNotATerminal)
	}
	original, err := raw.TcGetAttr(uintptr(fd))
	if err != nil {
		return nil, fmt.Errorf("tcgetattr: %w", err)
	}
	mode := *original
	mode.Iflag &^= syscall.BRKINT | syscall.ICRNL | syscall.INPCK | syscall.ISTRIP | syscall.IXON
	mode.Oflag &^= syscall.OPOST
	mode.Cflag &^= syscall.CSIZE | syscall.PARENB
	mode.Cflag |= syscall.CS8
	mode.Lflag &^= syscall.ECHO | syscall.ICANON | syscall.IEXTEN | syscall.ISIG
	mode.Cc[syscall.VMIN] = 1
	mode.Cc[syscall.VTIME] = 0
	if err := raw.TcSetAttr(uintptr(fd), &mode); err != nil {
		return nil, fmt.Errorf("tcsetattr: %w", err)
	}
	return original, nil
}

// restoreMode restores a termios snapshot taken by setRawMode. Errors are
// tolerated by callers since this frequently runs during process exit.
func restoreMode(fd int, mode *raw.Termios) error {
	return raw.TcSetAttr(uintptr(fd), mode)
}

// fdWrite writes s to fd, returning the number of bytes actually written.
func fdWrite(fd int, s string) int {
	n, _ := syscall.Write(fd, []byte(s))
	return n
}

// readByteTimeout reads a single byte from fd, blocking for at most timeout
// (nil blocks indefinitely). ok is false if the timeout elapsed with
// nothing readable.
func readByteTimeout(fd int, timeout *syscall.Timeval) (c byte, ok bool, err error) {
	if timeout != nil {
		// Linux select writes the unslept time back into its timeval, so
		// hand it a copy to keep the caller's timeout intact.
		tv := *timeout
		rd := syscall.FdSet{}
		fdset.Set(fd, &rd)
		n, serr := syscall.Select(fd+1, &rd, nil, nil, &tv)
		if serr != nil {
			return 0, false, fmt.Errorf("select: %w", serr)
		}
		if n == 0 {
			return 0, false, nil
		}
	}
	buf := make([]byte, 1)
	n, rerr := syscall.Read(fd, buf)
	if rerr != nil {
		return 0, false, fmt.Errorf("read: %w", rerr)
	}
	if n == 0 {
		return 0, false, ErrEndOfFile
	}
	return buf[0], true, nil
}

// wouldBlock reports whether fd has nothing readable within timeout.
func wouldBlock(fd int, timeout *syscall.Timeval) bool {
	tv := *timeout
	rd := syscall.FdSet{}
	fdset.Set(fd, &rd)
	n, err := syscall.Select(fd+1, &rd, nil, nil, &tv)
	if err != nil {
		return false
	}
	return n == 0
}

var timeout20ms = syscall.Timeval{Sec: 0, Usec: 20 * 1000}

// getCursorPosition queries the terminal's reported cursor column via the
// CSI 6n "device status report" sequence. Returns -1 on any failure.
func getCursorPosition(ifd, ofd int) int {
	if fdWrite(ofd, "\x1b[6n") != 4 {
		return -1
	}
	buf := make([]byte, 0, 32)
	for len(buf) < 32 {
		c, ok, err := readByteTimeout(ifd, &timeout20ms)
		if err != nil || !ok {
			break
		}
		buf = append(buf, c)
		if c == 'R' {
			break
		}
	}
	if len(buf) < 6 || buf[0] != 0x1b || buf[1] != '[' || buf[len(buf)-1] != 'R' {
		return -1
	}
	parts := strings.Split(string(buf[2:len(buf)-1]), ";")
	if len(parts) != 2 {
		return -1
	}
	cols, err := strconv.Atoi(parts[1])
	if err != nil {
		return -1
	}
	return cols
}

// getColumns determines the terminal width: first via the TIOCGWINSZ
// ioctl, falling back to the cursor-report probe, and finally to
// defaultCols if both fail.
func getColumns(ifd, ofd int) int {
	if ws, err := unix.IoctlGetWinsize(ofd, unix.TIOCGWINSZ); err == nil && ws.Col > 0 {
		return int(ws.Col)
	}
	start := getCursorPosition(ifd, ofd)
	if start < 0 {
		return defaultCols
	}
	if fdWrite(ofd, "\x1b[999C") != 6 {
		return defaultCols
	}
	cols := getCursorPosition(ifd, ofd)
	if cols < 0 {
		return defaultCols
	}
	if cols > start {
		fdWrite(ofd, fmt.Sprintf("\x1b[%dD", cols-start))
	}
	return cols
}

// clearScreenSeq is the ANSI sequence to home the cursor and clear the
// display.
const clearScreenSeq = "\x1b[H\x1b[2J"

// beep rings the terminal bell on the error fd, as the source does.
func beep(errFd int) {
	fdWrite(errFd, "\x07")
}
