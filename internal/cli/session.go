package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// maxContentWidth — предел ширины колонки CONTENT в табличном выводе.
const maxContentWidth = 80

// NewSessionCmd создаёт группу команд для управления сессиями.
func NewSessionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage conversation sessions",
	}

	cmd.AddCommand(
		newSessionHistoryCmd(clientFn, outputFn),
		newSessionClearCmd(clientFn, outputFn),
	)

	return cmd
}

func newSessionHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show session history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			turns, err := client.History(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ROLE", "CONTENT", "CREATED"}
			rows := make([][]string, len(turns))
			for i, t := range turns {
				rows[i] = []string{t.Role, truncate(t.Content, maxContentWidth), t.CreatedAt}
			}

			out.Print(headers, rows, turns)
			return nil
		},
	}
}

func newSessionClearCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "clear ID",
		Short: "Delete session history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.Clear(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Session cleared: %s", args[0]))
			return nil
		},
	}
}

// truncate обрезает строку до n символов, переводы строк заменяет пробелами.
func truncate(s string, n int) string {
	flat := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		flat = append(flat, r)
	}
	if len(flat) <= n {
		return string(flat)
	}
	return string(flat[:n-3]) + "..."
}
