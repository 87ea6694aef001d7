package cli

import (
	"fmt"
	"log"
	"os"

	"intel-quiz-service/internal/config"
	"intel-quiz-service/internal/infra/excel"
	"github.com/spf13/cobra"
)

// NewImportCmd loads the question catalog from a spreadsheet workbook.
func NewImportCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the question catalog from an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			catalog, result, err := excel.ReadCatalog(f)
			if err != nil {
				return err
			}
			for _, skipped := range result.Skipped {
				log.Printf("skipped %s", skipped)
			}

			if err := replaceCatalog(cmd.Context(), cfg, catalog, nil); err != nil {
				return err
			}
			log.Printf("imported %d weeks, %d questions from %s", result.Weeks, result.Questions, file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to .xlsx workbook")
	return cmd
}
