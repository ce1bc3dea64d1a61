package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daryltucker/wst-etc/internal/assets"
	"github.com/daryltucker/wst-etc/internal/output"
)

var forceOverwrite bool

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage the page template",
}

var templateExportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Write the embedded page template to <dir>/templates/ for customisation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig("console"); err != nil {
			return err
		}
		n, err := exportTemplates(args[0], forceOverwrite)
		if err != nil {
			return err
		}
		output.Logger.Infow("Export complete", "target", args[0], "total_files", n)
		fmt.Fprintf(cmd.OutOrStdout(), "Serve it with: wst-etc serve --template-dir %s\n", args[0])
		return nil
	},
}

// exportTemplates copies the embedded templates below dir and returns how many were written.
func exportTemplates(dir string, force bool) (int, error) {
	targetDir := filepath.Join(dir, "templates")
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create target directory %s: %w", targetDir, err)
	}

	entries, err := fs.ReadDir(assets.Templates, "templates")
	if err != nil {
		return 0, fmt.Errorf("failed to read embedded templates: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		targetPath := filepath.Join(targetDir, entry.Name())
		if _, err := os.Stat(targetPath); err == nil && !force {
			output.Logger.Warnw("Skipping existing file (use --force)", "path", targetPath)
			continue
		}

		content, err := fs.ReadFile(assets.Templates, "templates/"+entry.Name())
		if err != nil {
			return count, fmt.Errorf("failed to read embedded file %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(targetPath, content, 0o644); err != nil {
			return count, fmt.Errorf("failed to write %s: %w", targetPath, err)
		}
		output.Logger.Infow("Exported template", "name", entry.Name())
		count++
	}
	return count, nil
}

func init() {
	templateExportCmd.Flags().BoolVarP(&forceOverwrite, "force", "f", false, "Overwrite existing files")
	templateCmd.AddCommand(templateExportCmd)
	rootCmd.AddCommand(templateCmd)
}
