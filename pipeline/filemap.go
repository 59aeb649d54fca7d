package pipeline

// fileMap deduplicates FileSpec -> File by pointer identity, the Go
// counterpart of original_source/pipe.hpp's daemon_pipe::FileMap. Order
// of first reference is preserved so open() runs deterministically.
type fileMap struct {
	order []*File
	index map[*FileSpec]*File
}

func newFileMap() *fileMap {
	return &fileMap{index: make(map[*FileSpec]*File)}
}

// get returns the File for spec, creating it on first reference, and
// accumulates the wantRead/wantWrite intent onto it.
func (m *fileMap) get(spec *FileSpec, wantRead, wantWrite bool) *File {
	f, ok := m.index[spec]
	if !ok {
		f = &File{spec: spec}
		m.index[spec] = f
		m.order = append(m.order, f)
	}
	f.wantRead = f.wantRead || wantRead
	f.wantWrite = f.wantWrite || wantWrite
	return f
}

// openAll opens every File exactly once, in first-reference order.
func (m *fileMap) openAll() error {
	for _, f := range m.order {
		if err := f.open(); err != nil {
			return err
		}
	}
	return nil
}

// closeAll releases every parent-side fd still open. Must run before
// the harvester waits (spec §9).
func (m *fileMap) closeAll() {
	for _, f := range m.order {
		f.close()
	}
}
