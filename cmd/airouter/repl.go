package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/Maynkbisht/AI-Router/internal/router"
	"github.com/Maynkbisht/AI-Router/pkg/session"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const replHelp = `Type a prompt to route it, or one of:
  /undo            remove the last exchange
  /redo            restore the last undone exchange
  /clear           clear history and pending prompts
  /history         show the conversation
  /queue <prompt>  add a prompt to the pending queue
  /pending         list pending prompts
  /process         route the oldest pending prompt
  /stats           show session counters
  /providers       list providers
  /quit            exit`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive session with undo/redo and a pending queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		r, _, err := newRouter(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		line := liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)

		historyFile := replHistoryPath()
		if f, err := os.Open(historyFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer saveReplHistory(line, historyFile)

		rp := &repl{router: r, sess: session.New(session.NewID()), out: cmd.OutOrStdout()}
		fmt.Fprintf(rp.out, "airouter %s. /help for commands.\n", Version)

		for {
			input, err := line.Prompt("airouter> ")
			if err != nil {
				if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
					fmt.Fprintln(rp.out)
					return nil
				}
				return err
			}
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			line.AppendHistory(input)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			more := rp.handle(ctx, input)
			stop()
			if !more {
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// repl executes one line of input against a single session.
type repl struct {
	router *router.Router
	sess   *session.Session
	out    io.Writer
}

// handle runs input and reports whether the loop should continue.
func (rp *repl) handle(ctx context.Context, input string) bool {
	if !strings.HasPrefix(input, "/") {
		rp.chat(ctx, input)
		return true
	}

	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "/quit", "/exit", "/q":
		return false
	case "/help", "/?":
		fmt.Fprintln(rp.out, replHelp)
	case "/undo":
		msg, err := rp.sess.Undo()
		if err != nil {
			fmt.Fprintln(rp.out, "No messages to undo")
			break
		}
		fmt.Fprintf(rp.out, "Undone: %s\n", msg.UserPrompt)
	case "/redo":
		msg, err := rp.sess.Redo()
		if err != nil {
			fmt.Fprintln(rp.out, "No messages to redo")
			break
		}
		fmt.Fprintf(rp.out, "Redone: %s\n", msg.UserPrompt)
	case "/clear":
		rp.sess.Clear()
		fmt.Fprintln(rp.out, "Session cleared")
	case "/history":
		msgs := rp.sess.Messages()
		if len(msgs) == 0 {
			fmt.Fprintln(rp.out, "No messages yet")
		}
		for i, m := range msgs {
			fmt.Fprintf(rp.out, "%d. [%s via %s] %s\n   %s\n", i+1, m.Category, m.ProviderName, m.UserPrompt, m.AIResponse)
		}
	case "/queue":
		if !rp.sess.EnqueuePending(arg) {
			fmt.Fprintln(rp.out, "No prompt provided")
			break
		}
		fmt.Fprintf(rp.out, "Queued (%d pending)\n", rp.sess.Stats().Pending)
	case "/pending":
		pending := rp.sess.Pending()
		if len(pending) == 0 {
			fmt.Fprintln(rp.out, "No pending prompts")
		}
		for i, p := range pending {
			fmt.Fprintf(rp.out, "%d. %s\n", i+1, p)
		}
	case "/process":
		resp, err := rp.router.ProcessPending(ctx, rp.sess)
		if errors.Is(err, session.ErrQueueEmpty) {
			fmt.Fprintln(rp.out, "No pending prompts")
			break
		}
		rp.print(resp, err)
	case "/stats":
		st := rp.sess.Stats()
		fmt.Fprintf(rp.out, "messages=%d pending=%d undo=%d redo=%d\n", st.Messages, st.Pending, st.Undo, st.Redo)
	case "/providers":
		for _, d := range rp.router.Providers() {
			fmt.Fprintf(rp.out, "%-12s %-24s %.2f\n", d.ID, d.Name, d.Quality)
		}
	default:
		fmt.Fprintf(rp.out, "Unknown command %s. /help for commands.\n", cmd)
	}
	return true
}

func (rp *repl) chat(ctx context.Context, prompt string) {
	resp, err := rp.router.Stream(ctx, rp.sess, prompt, func(chunk string) error {
		_, err := io.WriteString(rp.out, chunk)
		return err
	})
	fmt.Fprintln(rp.out)
	if err != nil {
		fmt.Fprintf(rp.out, "Error: %v\n", err)
		return
	}
	if resp.Success {
		fmt.Fprintf(rp.out, "  (%s via %s)\n", resp.Category, resp.ProviderName)
	}
}

func (rp *repl) print(resp *router.Response, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(rp.out, "Error: %v\n", err)
	case !resp.Success:
		fmt.Fprintf(rp.out, "%s%s\n", router.ErrorPrefix, resp.Error)
	default:
		fmt.Fprintf(rp.out, "> %s\n", resp.Prompt)
		printResponse(rp.out, resp)
	}
}

func replHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "airouter", "repl_history")
}

func saveReplHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
