package source

// FileFlags encodes metadata about a loaded source file.
type FileFlags uint8

const (
	// FileOverlay indicates the content came from an editor buffer rather than disk.
	FileOverlay FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures the content of a single shader source as seen by one scan or merge.
type File struct {
	Path    string
	Content []byte
	Lines   []string
	Flags   FileFlags
}

// LineCount returns the number of logical lines in the file.
func (f *File) LineCount() int {
	return len(f.Lines)
}

// Line returns the 0-indexed line, or "" when out of range.
func (f *File) Line(idx int) string {
	if idx < 0 || idx >= len(f.Lines) {
		return ""
	}
	return f.Lines[idx]
}
