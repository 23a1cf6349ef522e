package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/aliskhannn/image-versioner/internal/catalog"
	"github.com/aliskhannn/image-versioner/internal/model"
)

func newVersionsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "Print the configured version catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			cat, err := catalog.New(cfg.Pipeline.Versions)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderVersions(cat.Versions()))
			return nil
		},
	}
}

func renderVersions(versions []model.VersionSpec) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"Version", "Width", "Height"})

	for _, v := range versions {
		height := "auto"
		if v.Height != nil {
			height = strconv.Itoa(*v.Height)
		}
		tw.AppendRow(table.Row{v.Name, strconv.Itoa(v.Width), height})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
