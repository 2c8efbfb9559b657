package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoptrace/hoptrace/internal/viewer"
)

// ViewerCmd generates trace viewer pages and serves the capture directory.
type ViewerCmd struct {
	Port    int  `short:"p" default:"${config_viewer_port}" help:"Port to serve the viewer on"`
	NoServe bool `help:"Only generate viewer pages, do not start the server"`
}

// Run executes the viewer command
func (c *ViewerCmd) Run(globals *Globals) error {
	generated, err := viewer.Generate(globals.CaptureDir)
	if err != nil {
		return outputErrorCommon(globals, "VIEWER_GENERATE_FAILED", err.Error(),
			"check that the capture directory exists and is writable")
	}
	if len(generated) == 0 {
		return outputErrorCommon(globals, "NO_SESSIONS",
			"no sessions found under "+globals.CaptureDir,
			"record a session first, e.g. via the serve command")
	}

	if !globals.Quiet {
		for _, name := range generated {
			fmt.Fprintf(globals.Stdout, "Generated viewer for session %s\n", name)
		}
	}

	if c.NoServe {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", c.Port),
		Handler: viewer.Handler(globals.CaptureDir),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	if !globals.Quiet {
		fmt.Fprintf(globals.Stdout, "Serving viewer at http://localhost:%d/ (open /<session>/%s)\n", c.Port, viewer.FileName)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return outputErrorCommon(globals, "VIEWER_SERVE_FAILED", err.Error())
	}
}
