package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/dqstudio/internal/chat"
	"github.com/leapstack-labs/dqstudio/internal/cli/output"
	"github.com/spf13/cobra"
)

const chatPrompt = "dqstudio> "

// lineReader is the part of readline the chat loop needs.
type lineReader interface {
	Readline() (string, error)
}

// NewChatCommand creates the chat command.
func NewChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the rule assistant in the terminal",
		Long: `Start an interactive conversation with the rule assistant.

Every message is sent together with the whole conversation so far. Replies
come back as "Rule: ..." and "Explanation: ..." lines.

Commands:
  .history   Print the conversation so far
  .help      Show this help
  .quit      Leave (also Ctrl+D)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd)
		},
	}
	return cmd
}

func runChat(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)

	conv := chat.New(chat.Config{
		Completer: newCompleter(cmdCtx.Cfg, cmdCtx.Logger),
		Logger:    cmdCtx.Logger,
	})
	defer conv.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          chatPrompt,
		HistoryFile:     chatHistoryFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat: %w", err)
	}
	defer func() { _ = rl.Close() }()

	return chatLoop(cmd.Context(), conv, rl, cmdCtx.Renderer)
}

// chatHistoryFile keeps prompt history next to the default catalog.
func chatHistoryFile() string {
	dir := ".dqstudio"
	if _, err := os.Stat(dir); err != nil {
		return ""
	}
	return filepath.Join(dir, "chat_history")
}

func chatLoop(ctx context.Context, conv *chat.Conversation, rl lineReader, r *output.Renderer) error {
	printMessage(r, conv.Messages()[0])

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ".quit", ".exit":
			return nil
		case ".help":
			r.Muted("Type a message to ask for a rule. .history prints the conversation, .quit leaves.")
			continue
		case ".history":
			for _, m := range conv.Messages() {
				printMessage(r, m)
			}
			continue
		}

		before := len(conv.Messages())
		if err := conv.Send(ctx, line); err != nil {
			if errors.Is(err, chat.ErrClosed) {
				return nil
			}
			r.Warning(err.Error())
			continue
		}
		msgs := conv.Messages()
		// the human message is msgs[before]
		for _, m := range msgs[before+1:] {
			printMessage(r, m)
		}
	}
}

func printMessage(r *output.Renderer, m chat.Message) {
	if m.Sender == chat.SenderHuman {
		r.Println(r.Styles().Muted.Render("you: ") + m.Content)
		return
	}
	r.Println(r.Styles().Info.Render("assistant: ") + m.Content)
}
