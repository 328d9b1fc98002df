package gestureload

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/enso/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the global logger on stdout and, when logFile is
// set, on that file too. The returned func closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	closeFn := func() error { return nil }
	var w io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closeFn = file.Close
	}
	if err := logger.InitWithWriter(w); err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closeFn, nil
}
