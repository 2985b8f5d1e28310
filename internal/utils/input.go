package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
)

var ErrUserInitiatedExit = errors.New("user exit")

// ReadUserInput reads one line from the terminal, even when stdin is piped.
func ReadUserInput() (string, error) {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return "", fmt.Errorf("cannot open terminal: %w", err)
	}
	defer tty.Close()
	return ReadUserInputFrom(tty)
}

// ReadUserInputFrom reads one line from r and returns on interrupt. The
// quitters 'q' and 'quit' and a closed input return ErrUserInitiatedExit.
func ReadUserInputFrom(r io.Reader) (string, error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(r)
		userInput, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && userInput != "") {
			errChan <- err
			return
		}
		inputChan <- userInput
	}()

	select {
	case <-sigChan:
		return "", ErrUserInitiatedExit
	case err := <-errChan:
		if errors.Is(err, io.EOF) {
			return "", ErrUserInitiatedExit
		}
		return "", fmt.Errorf("failed to read user input: %w", err)
	case userInput := <-inputChan:
		trimmedInput := strings.TrimSpace(userInput)
		quitters := []string{"q", "quit"}
		if slices.Contains(quitters, trimmedInput) {
			return "", ErrUserInitiatedExit
		}
		return trimmedInput, nil
	}
}
