package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

func TestReadUserInputFrom(t *testing.T) {
	got, err := ReadUserInputFrom(strings.NewReader("  hello there \n"))
	if err != nil {
		t.Fatalf("ReadUserInputFrom: %v", err)
	}
	testboil.FailTestIfDiff(t, got, "hello there")

	got, err = ReadUserInputFrom(strings.NewReader("no newline"))
	if err != nil {
		t.Fatalf("ReadUserInputFrom: %v", err)
	}
	testboil.FailTestIfDiff(t, got, "no newline")
}

func TestReadUserInputFrom_Quitters(t *testing.T) {
	for _, in := range []string{"q\n", "quit\n", " quit \n", ""} {
		if _, err := ReadUserInputFrom(strings.NewReader(in)); !errors.Is(err, ErrUserInitiatedExit) {
			t.Fatalf("input %q: expected ErrUserInitiatedExit, got: %v", in, err)
		}
	}
}
