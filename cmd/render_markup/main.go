// Command render_markup converts stored markup or markdown into the forms the
// editor works with: sanitized markup, the Lexical JSON tree and markdown.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"blog-editor-be/pkg/document"
	"blog-editor-be/pkg/lexical"
	"blog-editor-be/pkg/markup"

	"github.com/spf13/cobra"
)

var (
	fromMarkdown bool
	onlyMarkdown bool
)

var rootCmd = &cobra.Command{
	Use:   "render_markup [file]",
	Short: "Render editor markup as markup, Lexical JSON and markdown",
	Long: `Reads markup (or markdown with --markdown) from a file or stdin,
hydrates it into a document tree and prints every rendition.

Examples:
  render_markup post.html
  cat post.md | render_markup --markdown`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().BoolVarP(&fromMarkdown, "markdown", "m", false, "treat the input as markdown")
	rootCmd.Flags().BoolVar(&onlyMarkdown, "only-markdown", false, "print the markdown rendition only")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var (
		src []byte
		err error
	)
	if len(args) == 0 {
		src, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	source := string(src)
	if fromMarkdown {
		source, err = markup.MarkdownToMarkup(source)
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}

	tree := document.New()
	if err := markup.Hydrate(tree, source); err != nil {
		return fmt.Errorf("import markup: %w", err)
	}

	root := tree.ToJSON()
	out := cmd.OutOrStdout()
	if onlyMarkdown {
		fmt.Fprintln(out, lexical.NewParser().Render(root))
		return nil
	}

	rootJSON, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}

	fmt.Fprintln(out, "--- Markup ---")
	fmt.Fprintln(out, markup.Export(tree))
	fmt.Fprintln(out, "--- Lexical JSON ---")
	fmt.Fprintln(out, string(rootJSON))
	fmt.Fprintln(out, "--- Markdown ---")
	fmt.Fprintln(out, lexical.NewParser().Render(root))
	fmt.Fprintln(out, "--- Excerpt ---")
	fmt.Fprintln(out, lexical.Excerpt(root))
	return nil
}
