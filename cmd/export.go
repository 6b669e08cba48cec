package cmd

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/sylinko/everywhere-web/export"
	"github.com/sylinko/everywhere-web/service/vo"
)

var (
	exportLang string
	exportDump bool
)

var exportCmd = &cobra.Command{
	Use:   "export [slug]",
	Short: "Print docs as markdown",
	Long: `Print one docs page as markdown, or every page of the language when no
slug is given. --dump prints the resolved document structure instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		lang := vo.Language(exportLang)
		if lang == "" {
			lang = a.registry.Default()
		}
		ctx := cmd.Context()

		if len(args) == 0 {
			if exportDump {
				docs, err := a.collections.Docs.GetPages(ctx, lang)
				if err != nil {
					return err
				}
				spew.Fdump(os.Stdout, docs)
				return nil
			}
			markdown, err := export.Full(ctx, a.collections.Docs, lang)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(os.Stdout, markdown)
			return err
		}

		slug := vo.ParseSlug(args[0])
		if exportDump {
			doc, err := a.collections.Docs.GetPage(ctx, lang, slug)
			if err != nil {
				return err
			}
			spew.Fdump(os.Stdout, doc)
			return nil
		}
		markdown, err := export.Page(ctx, a.collections.Docs, lang, slug)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(os.Stdout, markdown)
		return err
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportLang, "lang", "l", "", "language tag (default: the site default)")
	exportCmd.Flags().BoolVar(&exportDump, "dump", false, "dump the document structure")
	rootCmd.AddCommand(exportCmd)
}
