package lineedit

import "fmt"

// refreshLine dispatches to the single-line or multi-line refresh
// algorithm depending on the session's mode.
func (ls *linestate) refreshLine() {
	if ls.s.multiline {
		ls.refreshMultiLine()
	} else {
		ls.refreshSingleLine()
	}
}

// hintSeq renders the session's hint callback result, wrapped in SGR codes
// if the hint asked for color or bold, trimmed to fit in maxCols bytes. It
// returns nil if there is no hint to show.
func (ls *linestate) hintSeq(maxCols int) []byte {
	s := ls.s
	if s.hintsCB == nil || maxCols <= 0 {
		return nil
	}
	h := s.hintsCB(ls.String())
	if h == nil || len(h.Text) == 0 {
		return nil
	}
	text := h.Text
	if len(text) > maxCols {
		text = text[:maxCols]
	}
	color := h.Color
	if h.Bold && color < 0 {
		color = 37
	}
	styled := color >= 0 || h.Bold
	var out []byte
	if styled {
		out = append(out, fmt.Sprintf("\x1b[%d;%d;49m", btoi(h.Bold), color)...)
	}
	out = append(out, text...)
	if styled {
		out = append(out, "\x1b[0m"...)
	}
	if s.freeHintsCB != nil {
		s.freeHintsCB(h)
	}
	return out
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// refreshSingleLine implements the single-line refresh algorithm: slide a
// visible window over the buffer so prompt+cursor always fits in cols,
// then emit \r, prompt, visible buffer, hint, erase-to-EOL, cursor
// placement, in one write.
//
// If the prompt alone is as wide as the terminal the naive window-slide
// would walk bStart past ls.pos (an underflow in the C source this is
// ported from); the bStart < ls.pos and bEnd > bStart guards below clamp
// that to an empty visible window instead of panicking on the slice
// bounds.
func (ls *linestate) refreshSingleLine() {
	s := ls.s
	cols := s.cols
	if cols < 1 {
		cols = 1
	}
	plen := len(s.prompt)

	bStart := 0
	bEnd := len(ls.buf)
	for plen+(ls.pos-bStart) >= cols && bStart < ls.pos {
		bStart++
	}
	for plen+(bEnd-bStart) > cols && bEnd > bStart {
		bEnd--
	}

	var o outBuf
	o.str("\r")
	o.str(s.prompt)
	o.bytes(ls.buf[bStart:bEnd])
	hintCols := cols - plen - (bEnd - bStart)
	o.bytes(ls.hintSeq(hintCols))
	o.str("\x1b[0K")
	o.str(fmt.Sprintf("\r\x1b[%dC", plen+(ls.pos-bStart)))
	s.flushOut(&o)
}

// refreshMultiLine implements the multi-line refresh algorithm: erase
// every row used by the previous render (tracked via oldpos/maxrows), then
// redraw the prompt and full buffer, wrapping at cols, and reposition the
// cursor.
func (ls *linestate) refreshMultiLine() {
	s := ls.s
	cols := s.cols
	if cols < 1 {
		cols = 1
	}
	plen := len(s.prompt)
	blen := len(ls.buf)

	oldRows := ls.maxrows
	rpos := (plen + ls.oldpos + cols) / cols
	rows := (plen + blen + cols - 1) / cols
	if rows < 1 {
		rows = 1
	}
	if rows > ls.maxrows {
		ls.maxrows = rows
	}

	var o outBuf
	if oldRows-rpos > 0 {
		o.str(fmt.Sprintf("\x1b[%dB", oldRows-rpos))
	}
	for j := 0; j < oldRows-1; j++ {
		o.str("\r\x1b[0K\x1b[1A")
	}
	o.str("\r\x1b[0K")
	o.str(s.prompt)
	o.bytes(ls.buf)
	o.bytes(ls.hintSeq(cols - plen - blen))

	if ls.pos != 0 && ls.pos == blen && (ls.pos+plen)%cols == 0 {
		o.str("\n\r")
		rows++
		if rows > ls.maxrows {
			ls.maxrows = rows
		}
	}

	rpos2 := (plen + ls.pos + cols) / cols
	if rows-rpos2 > 0 {
		o.str(fmt.Sprintf("\x1b[%dA", rows-rpos2))
	}
	if col := (plen + ls.pos) % cols; col != 0 {
		o.str(fmt.Sprintf("\r\x1b[%dC", col))
	} else {
		o.str("\r")
	}

	ls.oldpos = ls.pos
	s.flushOut(&o)
}
