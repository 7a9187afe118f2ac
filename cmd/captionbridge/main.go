// Command captionbridge forwards live video captions from a Chrome page to
// a local consumer.
//
// Usage:
//
//	captionbridge watch                                   # attach to an open YouTube tab
//	captionbridge watch --remote http://127.0.0.1:9222    # use a running Chrome
//	captionbridge watch --url https://www.youtube.com/watch?v=...
//	captionbridge receive                                 # print captions posted to 127.0.0.1:8765
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
