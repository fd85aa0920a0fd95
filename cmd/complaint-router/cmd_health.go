package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the store, dictionary and Claude configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			allOK := true

			st, err := newStore(ctx, logger)
			if err != nil {
				fmt.Printf("Store (%s): FAIL (%v)\n", cfg.Store.Backend, err)
				allOK = false
			} else {
				defer func() { _ = st.Close() }()
				if _, err := st.ListDepartments(ctx); err != nil {
					fmt.Printf("Store (%s): FAIL (%v)\n", cfg.Store.Backend, err)
					allOK = false
				} else {
					fmt.Printf("Store (%s): OK\n", cfg.Store.Backend)
				}
			}

			if _, err := newClassifier(logger); err != nil {
				fmt.Printf("Dictionary: FAIL (%v)\n", err)
				allOK = false
			} else {
				fmt.Println("Dictionary: OK")
			}

			// The narrator falls back to templates, so a missing key is not a failure.
			if cfg.Claude.APIKey == "" {
				fmt.Println("Claude API: not configured (template narratives)")
			} else {
				fmt.Println("Claude API: OK")
			}

			if !allOK {
				return fmt.Errorf("one or more health checks failed")
			}
			return nil
		},
	}
}
