package testutil

import (
	"context"
	"os"
	"path/filepath"

	"github.com/andrebq/blogbox/journal"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireJournal opens a journal in a temporary directory. When loader is
// not nil it runs before the journal is handed to the test.
func AcquireJournal(ctx context.Context, t TestLog, loader func(context.Context, *journal.Journal) error) (*journal.Journal, func()) {
	dir, err := os.MkdirTemp("", "blogbox-tests")
	if err != nil {
		t.Fatal(err)
	}
	j, err := journal.Open(ctx, filepath.Join(dir, "blog.db"))
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	if loader != nil {
		err = loader(ctx, j)
		if err != nil {
			t.Fatal(err)
		}
	}
	return j, func() {
		err := j.Close()
		if err != nil {
			t.Log("unable to close journal", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// TempFile returns a path inside a fresh temporary directory
func TempFile(t TestLog, name string) (string, func()) {
	dir, err := os.MkdirTemp("", "blogbox-tests")
	if err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, name), func() {
		err := os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
