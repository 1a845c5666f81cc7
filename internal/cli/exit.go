package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/matzehuels/chartsnap/pkg/errors"
)

// Process exit statuses.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2   // rejected input: bad flags, config, plan or chart file
	ExitCanceled = 130 // interrupted, following the shell's SIGINT status
)

// ExitCode reports err on w and maps it to an exit status. Coded input
// errors exit with ExitUsage so scripts can tell them from failed exports.
func ExitCode(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrors.Is(err, context.Canceled) {
		fmt.Fprintln(w, StyleDim.Render("canceled"))
		return ExitCanceled
	}

	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+errors.UserMessage(err))
	if code := errors.GetCode(err); code != "" {
		fmt.Fprintln(w, StyleDim.Render("  code: "+string(code)))
	}
	if status := errors.HTTPStatus(err); status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return ExitUsage
	}
	return ExitFailure
}
