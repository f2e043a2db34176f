package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ask returns value when set, otherwise prompts for it on errOut and reads
// one line from in. Prompts go to errOut so stdout stays scriptable.
func ask(in *bufio.Reader, errOut io.Writer, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	if in == nil {
		return "", fmt.Errorf("%s required", strings.ToLower(label))
	}

	fmt.Fprintf(errOut, "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%s required", strings.ToLower(label))
		}
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
