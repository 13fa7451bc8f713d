package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	isTerminal           = term.IsTerminal
	readTerminalPassword = term.ReadPassword
)

// promptPassword reads a password without echo when stdin is a terminal and
// falls back to a plain line read otherwise, so the CLI can be scripted.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)
	defer func() { _, _ = fmt.Fprintln(cmd.ErrOrStderr()) }()

	var (
		raw []byte
		err error
	)
	if f, ok := cmd.InOrStdin().(*os.File); ok && isTerminal(int(f.Fd())) {
		raw, err = readTerminalPassword(int(f.Fd()))
	} else {
		raw, err = bufio.NewReader(cmd.InOrStdin()).ReadBytes('\n')
		if errors.Is(err, io.EOF) && len(raw) > 0 {
			err = nil
		}
	}
	defer common.WipeByteArray(raw)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(bytes.TrimRight(raw, "\r\n")), nil
}
