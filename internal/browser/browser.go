// Package browser opens run and repository links in the user's browser.
package browser

import (
	"fmt"
	"net/url"
	"os"

	ghbrowser "github.com/cli/go-gh/v2/pkg/browser"
)

// Browser launches a URL.
type Browser interface {
	Browse(url string) error
}

// newBrowser honors GH_BROWSER and BROWSER like the gh CLI. Tests replace it.
var newBrowser = func() Browser {
	return ghbrowser.New("", os.Stdout, os.Stderr)
}

// Open validates target as an absolute http(s) URL and opens it.
func Open(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", target, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: expected an http(s) link", target)
	}
	if err := newBrowser().Browse(u.String()); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
