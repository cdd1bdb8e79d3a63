// Package fuzztests houses Go fuzz harnesses for the include pipeline: the
// directive scanner, the source compositor and the validator log remapper.
// They guard against panics and hangs on arbitrary shader text and logs.
package fuzztests
