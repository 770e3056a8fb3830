package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/portfolio/backend/internal/portfolio"
	"github.com/portfolio/backend/internal/resume"
)

func init() {
	var (
		force      bool
		resumePath string
	)

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the resume dataset into empty collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := loadResume(resumePath)
			if err != nil {
				return err
			}
			return withService(func(svc *portfolio.Service) error {
				return runSeed(cmd.Context(), svc, rec, force, os.Stdout)
			})
		},
	}
	seedCmd.Flags().BoolVarP(&force, "force", "f", false, "Add records even to collections that already have some")
	seedCmd.Flags().StringVarP(&resumePath, "resume", "r", "", "Resume YAML file (defaults to the built-in record)")
	rootCmd.AddCommand(seedCmd)
}

func loadResume(path string) (resume.Record, error) {
	if path == "" {
		return resume.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return resume.Record{}, fmt.Errorf("failed to read resume: %w", err)
	}
	return resume.Parse(data)
}

func runSeed(ctx context.Context, svc *portfolio.Service, rec resume.Record, force bool, out io.Writer) error {
	result, err := svc.SeedFromResume(ctx, rec, force)
	if err != nil {
		return err
	}

	if len(result) == 0 {
		_, _ = fmt.Fprintln(out, "Nothing to seed; collections already have content.")
		return nil
	}

	collections := make([]string, 0, len(result))
	for name := range result {
		collections = append(collections, name)
	}
	sort.Strings(collections)

	for _, name := range collections {
		_, _ = fmt.Fprintf(out, "%-16s %d\n", name, result[name])
	}
	return nil
}
