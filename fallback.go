package lineedit

import (
	"bufio"
	"fmt"
)

// readBasic reads one line with no editing at all: used when the input fd
// isn't a TTY (reading from a pipe or file) or $TERM names a terminal we
// know we can't drive with cursor sequences. There is no bufMax cap here
// -- bufio.Scanner grows its buffer as needed.
func (s *Session) readBasic() (string, error) {
	if s.scanner == nil {
		s.scanner = bufio.NewScanner(s.in)
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrIO, err)
		}
		return "", ErrEndOfFile
	}
	return s.scanner.Text(), nil
}
