package pipeline

import "testing"

func TestFileMapDedupesByIdentity(t *testing.T) {
	m := newFileMap()
	spec := NewPipeSpec()

	a := m.get(spec, true, false)
	b := m.get(spec, false, true)

	if a != b {
		t.Fatalf("expected the same *File for the same *FileSpec")
	}
	if !a.wantRead || !a.wantWrite {
		t.Errorf("expected accumulated read+write intent, got read=%v write=%v", a.wantRead, a.wantWrite)
	}
	if len(m.order) != 1 {
		t.Errorf("expected one File in order, got %d", len(m.order))
	}
}

func TestFileMapDistinctSpecsDistinctFiles(t *testing.T) {
	m := newFileMap()
	a := m.get(NewPipeSpec(), true, false)
	b := m.get(NewPipeSpec(), true, false)
	if a == b {
		t.Fatalf("distinct FileSpecs must not share a File")
	}
	if len(m.order) != 2 {
		t.Errorf("expected two Files in order, got %d", len(m.order))
	}
}

func TestFileMapOpenAllAndCloseAll(t *testing.T) {
	m := newFileMap()
	m.get(NewPipeSpec(), true, true)
	m.get(NewFileSpec(devNull, false), false, true)

	if err := m.openAll(); err != nil {
		t.Fatalf("openAll: %v", err)
	}
	for _, f := range m.order {
		if f.readSide == nil && f.writeSide == nil {
			t.Errorf("File left unopened after openAll")
		}
	}
	m.closeAll()
}
