package browser

import (
	"errors"
	"os"
	"testing"
)

type fakeBrowser struct {
	opened []string
	err    error
}

func (f *fakeBrowser) Browse(url string) error {
	f.opened = append(f.opened, url)
	return f.err
}

func useFake(t *testing.T, f *fakeBrowser) {
	t.Helper()
	orig := newBrowser
	t.Cleanup(func() { newBrowser = orig })
	newBrowser = func() Browser { return f }
}

func TestOpen(t *testing.T) {
	f := &fakeBrowser{}
	useFake(t, f)

	url := "https://github.com/o/r/actions/runs/1/jobs/build"
	if err := Open(url); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(f.opened) != 1 || f.opened[0] != url {
		t.Errorf("opened: got %v, want [%s]", f.opened, url)
	}
}

func TestOpen_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"not a url", "not a valid url"},
		{"no scheme", "github.com/o/r"},
		{"file scheme", "file:///etc/passwd"},
		{"missing host", "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeBrowser{}
			useFake(t, f)

			if err := Open(tt.url); err == nil {
				t.Errorf("Open(%q): expected error", tt.url)
			}
			if len(f.opened) != 0 {
				t.Errorf("browser launched for %q", tt.url)
			}
		})
	}
}

func TestOpen_LauncherError(t *testing.T) {
	errLaunch := errors.New("exec: \"xdg-open\": executable file not found")
	useFake(t, &fakeBrowser{err: errLaunch})

	err := Open("https://example.com")
	if !errors.Is(err, errLaunch) {
		t.Errorf("error: got %v, want %v", err, errLaunch)
	}
}

func TestOpen_System(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("METAHISTORY_TEST_BROWSER") == "" {
		t.Skip("METAHISTORY_TEST_BROWSER not set")
	}

	if err := Open("https://example.com"); err != nil {
		t.Errorf("Open failed: %v", err)
	}
}
