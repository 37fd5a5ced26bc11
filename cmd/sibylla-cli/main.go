// Sibylla CLI — инструмент командной строки для диалога с агентом
// через HTTP API.
//
// Использование:
//
//	sibylla [--api-url URL] [--token TOKEN] [--json] <command> [flags]
//
// Команды:
//
//	ask      Синхронный запрос к агенту
//	submit   Фоновый запрос без ожидания ответа
//	session  Просмотр и очистка истории сессий
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Sibylla/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var token string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "sibylla",
		Short:         "Sibylla CLI — conversational agent gateway tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("SIBYLLA_TOKEN"), "API bearer token (default: $SIBYLLA_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, token) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewAskCmd(clientFn, outputFn),
		cli.NewSubmitCmd(clientFn, outputFn),
		cli.NewSessionCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
