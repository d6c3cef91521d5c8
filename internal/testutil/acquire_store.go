package testutil

import (
	"context"
	"os"
	"path/filepath"

	"github.com/inkset/inkwell/internal/store"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireStore opens a fresh migrated database under a temp dir. The
// cleanup closes the store and removes the directory.
func AcquireStore(ctx context.Context, t TestLog, name string) (*store.Store, func()) {
	dir, err := os.MkdirTemp("", "inkwell-tests")
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(ctx, filepath.Join(dir, name+".db"))
	if err != nil {
		t.Fatal(err)
	}
	return st, func() {
		err := st.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
