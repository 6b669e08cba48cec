package cmd

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"
	"github.com/sylinko/everywhere-web/sitemap"
)

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Print sitemap.xml",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		entries, err := sitemap.NewBuilder(a.registry, a.collections.Docs, a.cfg.BaseURL).Build(cmd.Context())
		if err != nil {
			return err
		}
		w := bufio.NewWriter(os.Stdout)
		if err := sitemap.WriteXML(w, entries); err != nil {
			return err
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sitemapCmd)
}
