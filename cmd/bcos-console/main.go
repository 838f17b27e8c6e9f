package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chainkit-labs/bcos-sdk/pkg/log"
	"github.com/chainkit-labs/bcos-sdk/pkg/metrics"
)

const defaultConfigPath = "./config/config.json"

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

// NewRootCommand builds the bcos-console command. With arguments it runs a
// single console command, otherwise it starts the interactive prompt.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "bcos-console [command] [args...]",
		Short:         "Command line console for FISCO BCOS nodes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logConf, err := log.ConfigFromEnv()
			if err != nil {
				return fmt.Errorf("failed to read log config: %w", err)
			}
			lg := log.NewZapLogger(logConf).WithName("console")

			console := NewConsole(os.Stdout, lg, metrics.New())
			if err := console.SetConfig(cmd.Context(), configPath); err != nil {
				return err
			}
			defer console.Close()

			if len(args) > 0 {
				return console.Run(cmd.Context(), args)
			}
			runPrompt(console)
			return nil
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path of the client config file")
	rootCmd.Flags().SetInterspersed(false)

	return rootCmd
}

func runPrompt(console *Console) {
	initialState, _ := term.GetState(int(os.Stdin.Fd()))
	handleExit := func() {
		term.Restore(int(os.Stdin.Fd()), initialState)
		exec.Command("stty", "sane").Run()
	}

	fmt.Println("Welcome to the FISCO BCOS console. Type help to get help.")

	options := append(getStyleOptions(),
		prompt.OptionPrefix(">>> "),
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(buf *prompt.Buffer) {
				fmt.Println("Exiting BCOS console.")
				console.Close()
				handleExit()
				os.Exit(0)
			},
		}),
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn:  func(buf *prompt.Buffer) {},
		}),
	)
	p := prompt.New(
		func(s string) { console.Execute(context.Background(), s) },
		console.Complete,
		options...,
	)

	promptExitCh := make(chan struct{})
	go func() {
		p.Run()
		close(promptExitCh)
	}()

	select {
	case <-console.Wait():
	case <-promptExitCh:
	}
	handleExit()
	fmt.Println("Exiting BCOS console.")
}

func getStyleOptions() []prompt.Option {
	return []prompt.Option{
		prompt.OptionTitle("BCOS console"),
		prompt.OptionPrefixTextColor(prompt.Yellow),
		prompt.OptionPreviewSuggestionTextColor(prompt.Cyan),

		prompt.OptionSuggestionTextColor(prompt.White),
		prompt.OptionSuggestionBGColor(prompt.DarkBlue),

		prompt.OptionDescriptionTextColor(prompt.Black),
		prompt.OptionDescriptionBGColor(prompt.Yellow),

		prompt.OptionSelectedSuggestionTextColor(prompt.Black),
		prompt.OptionSelectedSuggestionBGColor(prompt.Yellow),

		prompt.OptionSelectedDescriptionTextColor(prompt.White),
		prompt.OptionSelectedDescriptionBGColor(prompt.DarkBlue),
	}
}

// splitCommand splits a prompt line on blanks.
func splitCommand(s string) []string {
	return strings.Fields(s)
}
