package lineedit

// completeLine runs the TAB completion sub-mode: cycle candidates from the
// session's completion callback, with index N (one past the last
// candidate) meaning "show the original buffer". It returns the byte that
// ended the sub-mode: 0 to resume the main loop with no further action, or
// any other byte to re-dispatch through the main decoder.
func (ls *linestate) completeLine() (rune, error) {
	s := ls.s
	candidates := s.completionCB(ls.String())
	if len(candidates) == 0 {
		beep(s.errFd)
		return 0, nil
	}

	savedBuf := ls.buf
	savedPos := ls.pos
	idx := 0

	for {
		if idx < len(candidates) {
			ls.buf = []byte(candidates[idx])
			ls.pos = len(ls.buf)
			ls.refreshLine()
			ls.buf = savedBuf
			ls.pos = savedPos
		} else {
			ls.refreshLine()
		}

		c, ok, err := readByteTimeout(s.inFd, nil)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}

		switch {
		case c == keyTab:
			idx = (idx + 1) % (len(candidates) + 1)
			if idx == len(candidates) {
				beep(s.errFd)
			}
			continue
		case c == keyEsc:
			// Unconditional cancel: restore the original buffer and
			// return to the main loop, regardless of what else is
			// already queued on the input fd.
			ls.refreshLine()
			return 0, nil
		default:
			if idx < len(candidates) {
				ls.buf = []byte(candidates[idx])
				ls.pos = len(ls.buf)
			}
			return rune(c), nil
		}
	}
}
