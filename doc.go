/*
Package lineedit is a small, embeddable readline replacement.

It drives a POSIX terminal in raw mode to provide single-line or multi-line
editing, bounded history with file persistence, tab completion, and optional
right-hand hints, without pulling in a full readline implementation. Hosts
(REPLs, shells, diagnostic CLIs) create a *Session around three file
descriptors and a prompt, register callbacks on that session, and call
ReadLine in a loop.

Based on: http://github.com/antirez/linenoise
*/
package lineedit
