package utils

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

// AttemptPrettyPrint by first checking if the glow command is available, and if so, pretty print the chat message
// if not found, simply print the message as is
func AttemptPrettyPrint(chatMessage models.Message, username string, raw bool) error {
	if raw {
		fmt.Println(chatMessage.Content)
		return nil
	}
	role := chatMessage.Role
	color := ancli.BLUE
	switch chatMessage.Role {
	case "user":
		color = ancli.CYAN
		role = username
	case "system":
		color = ancli.MAGENTA
	}
	cmd := exec.Command("glow", "--version")
	if err := cmd.Run(); err != nil {
		fmt.Printf("%v: %v\n", ancli.ColoredMessage(color, role), chatMessage.Content)
		return nil
	}

	cmd = exec.Command("glow")
	// glow hides <think> blocks
	inp := strings.ReplaceAll(chatMessage.Content, "<think>", "[think]")
	inp = strings.ReplaceAll(inp, "</think>", "[/think]")
	cmd.Stdin = bytes.NewBufferString(inp)
	cmd.Stdout = os.Stdout
	fmt.Printf("%v:", ancli.ColoredMessage(color, role))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run glow: %w", err)
	}
	return nil
}

// PrintTranscript prints every stored turn of tr. The empty placeholder reply
// of a priming pair is skipped.
func PrintTranscript(tr models.Transcript, username string, raw bool) error {
	for i, t := range tr {
		if i == 1 && tr.Primed() && t.Content == "" {
			continue
		}
		role := "assistant"
		if t.Role == models.RoleUser {
			role = "user"
		}
		if raw {
			fmt.Printf("%v: ", role)
		}
		if err := AttemptPrettyPrint(models.Message{Role: role, Content: t.Content}, username, raw); err != nil {
			return fmt.Errorf("failed to print turn %v: %w", t.Index, err)
		}
	}
	return nil
}
