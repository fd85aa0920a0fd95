package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	var (
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify complaint text without storing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "classify")
			if err != nil {
				return err
			}
			defer a.Close()

			if description == "" && len(args) > 0 {
				description = strings.Join(args, " ")
			}
			result := a.complaints.Preview(cmd.Context(), title, description)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "complaint title")
	cmd.Flags().StringVar(&description, "description", "", "complaint description (defaults to positional args)")
	return cmd
}

func keywordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keywords [text...]",
		Short: "Extract routing keywords from text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cls, err := newClassifier(newLogger())
			if err != nil {
				return fmt.Errorf("keywords: %w", err)
			}
			kws := cls.ExtractKeywords(strings.Join(args, " "))
			if len(kws) == 0 {
				fmt.Println("No keywords found.")
				return nil
			}
			for _, kw := range kws {
				fmt.Println(kw)
			}
			return nil
		},
	}
}

func sentimentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment [text...]",
		Short: "Estimate the tone of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cls, err := newClassifier(newLogger())
			if err != nil {
				return fmt.Errorf("sentiment: %w", err)
			}
			fmt.Println(cls.AnalyzeSentiment(strings.Join(args, " ")))
			return nil
		},
	}
}
