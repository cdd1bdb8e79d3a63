package diag

// Source is the origin tag attached to every remapped diagnostic.
const Source = "shaderls"

// Diagnostic is one validator message mapped back to an original file.
type Diagnostic struct {
	Line     int // 0-based line in the original file
	Severity Severity
	Code     string // vendor error code, may be empty
	Message  string
}
