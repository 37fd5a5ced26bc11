package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewAskCmd создаёт команду синхронного запроса к агенту.
func NewAskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var sessionID string
	var model string

	cmd := &cobra.Command{
		Use:   "ask TEXT",
		Short: "Send a message and wait for the agent reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			resp, err := client.Ask(ChatRequest{
				SessionID: sessionID,
				Input:     args[0],
				Model:     model,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Session: %s", resp.SessionID))
			out.Text(resp.Text, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (generated if omitted)")
	cmd.Flags().StringVar(&model, "model", "", "Model ID override")

	return cmd
}

// NewSubmitCmd создаёт команду постановки запроса в фоновую обработку.
func NewSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var sessionID string
	var model string

	cmd := &cobra.Command{
		Use:   "submit TEXT",
		Short: "Queue a message for background processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			ack, err := client.Submit(ChatRequest{
				SessionID: sessionID,
				Input:     args[0],
				Model:     model,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Request accepted: %s", ack.SessionID))
			out.Print(
				[]string{"SESSION_ID", "STATUS"},
				[][]string{{ack.SessionID, ack.Status}},
				ack,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (generated if omitted)")
	cmd.Flags().StringVar(&model, "model", "", "Model ID override")

	return cmd
}
