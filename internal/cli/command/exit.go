package command

import (
	"errors"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sesskeep/internal/core/domain"
)

// Process exit codes.
const (
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNotFound = 3
	ExitStorage  = 4
)

// ExitCode maps an error returned by App().Run to a process exit code.
// Domain errors are classified by the area segment of their code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}

	code := domain.CodeOf(err)
	switch {
	case code == domain.ErrSessionNotFound.Code:
		return ExitNotFound
	case strings.HasPrefix(code, "SK-CONF-"), strings.HasPrefix(code, "SK-ARG-"):
		return ExitUsage
	case strings.HasPrefix(code, "SK-STOR-"), strings.HasPrefix(code, "SK-CRYP-"):
		return ExitStorage
	}
	return ExitFailure
}
