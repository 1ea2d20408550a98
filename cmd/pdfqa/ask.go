package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/pdfqa-mcp/internal/qa"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested PDFs",
	Long: `Answer a question with citations. Without arguments, start an interactive
session that reads one question per line until "exit" or end of input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, _, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if len(args) > 0 {
			return ask(ctx, a.QA, os.Stdout, strings.Join(args, " "))
		}
		return chat(ctx, a.QA, os.Stdin, os.Stdout)
	},
}

func ask(ctx context.Context, svc *qa.Service, w io.Writer, question string) error {
	answer, err := svc.Ask(ctx, question)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(w, answer)
	}
	renderAnswer(w, answer)
	return nil
}

// chat answers questions read line by line from r
func chat(ctx context.Context, svc *qa.Service, r io.Reader, w io.Writer) error {
	fmt.Fprintln(w, heading("pdfqa"), "- ask about your PDFs, 'exit' to quit")

	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, prompt("> "))
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		if err := ask(ctx, svc, w, line); err != nil {
			fmt.Fprintln(w, failure("error:"), err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
