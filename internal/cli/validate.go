package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thinky-dev/thinky/internal/discover"
	"github.com/thinky-dev/thinky/internal/manifest"
	"github.com/thinky-dev/thinky/internal/registry"
	"github.com/thinky-dev/thinky/internal/tools"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate agent definition files",
	Long: `Validate a definition file, or every definition file under a directory,
against the agent schema. Tool names and the requires constraint are checked
too. Nothing is registered.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	files, err := definitionFiles(args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No definition files found in %s\n", args[0])
		return nil
	}

	loader := manifest.NewLoader(registry.New(), tools.Builtin(), manifest.WithVersion(buildVersion))

	failed := 0
	for _, path := range files {
		fmt.Fprintf(out, "%s\n", path)

		result, err := manifest.ValidateFile(path)
		if err != nil {
			fmt.Fprintf(out, "  [FAIL] %v\n", err)
			failed++
			continue
		}
		if !result.Valid {
			fmt.Fprintf(out, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
			for _, issue := range result.Issues {
				fmt.Fprintf(out, "    - %s\n", issue)
			}
			failed++
			continue
		}

		unit, err := loader.Check(path)
		if err != nil {
			fmt.Fprintf(out, "  [FAIL] %v\n", err)
			failed++
			continue
		}
		fmt.Fprintf(out, "  [ OK ] %s\n", strings.Join(unit.Names(), ", "))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(files))
	}
	return nil
}

// definitionFiles returns path itself, or the definition files under it
// when it is a directory. Hidden and underscore entries are skipped the
// same way discovery skips them.
func definitionFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", discover.ErrPathNotFound, path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if p != path && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.IsDir() && slices.Contains(discover.DefaultExtensions, strings.ToLower(filepath.Ext(name))) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	return files, nil
}
