package pipeline

// FileSpec is the caller's handle to an input or output endpoint: an
// anonymous pipe (empty Filename), an on-disk file, or a dup of one of
// the caller's own std streams (via the special filenames below).
// FileSpec values are shared by reference: two ProcSpecs pointing at
// the same *FileSpec describe the same pipe or file.
type FileSpec struct {
	// Filename is empty for an anonymous pipe, or one of /dev/stdin,
	// /dev/stdout, /dev/stderr, /dev/null, or an on-disk path.
	Filename string
	// Append opens an on-disk file with O_APPEND.
	Append bool
}

const (
	devStdin  = "/dev/stdin"
	devStdout = "/dev/stdout"
	devStderr = "/dev/stderr"
	devNull   = "/dev/null"
)

// NewPipeSpec returns a FileSpec describing a fresh anonymous pipe.
func NewPipeSpec() *FileSpec { return &FileSpec{} }

// NewFileSpec returns a FileSpec describing an on-disk file.
func NewFileSpec(filename string, append bool) *FileSpec {
	return &FileSpec{Filename: filename, Append: append}
}
