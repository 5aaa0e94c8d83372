package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/annotpipe/pipeline"
)

func newPipelinesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pipelines",
		Short: "List the pipelines declared in the pipelines file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := ctx.specFile
			if path == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path = cfg.Pipeline.SpecFile
			}
			if path == "" {
				return fmt.Errorf("no pipelines file: pass --spec or set pipeline.spec_file")
			}
			set, err := pipeline.LoadSpecFile(path)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderPipelines(set.All()))
			return err
		},
	}
}

func renderPipelines(specs []pipeline.Spec) string {
	var rows [][]string
	for _, sp := range specs {
		for i, st := range sp.Stages {
			name := ""
			if i == 0 {
				name = sp.Name
			}
			rows = append(rows, []string{name, strconv.Itoa(i + 1), st.Name, strings.Join(st.Args, " ")})
		}
	}
	return renderTable(
		[]string{"Pipeline", "#", "Stage", "Arguments"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	)
}
