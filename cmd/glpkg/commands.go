package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smarty/glpkg/contracts"
	"github.com/smarty/glpkg/core"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "glpkg",
		Short:         "Resolve, download and extract GitLab package files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	core.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newResolveCommand())
	cmd.AddCommand(newPackagesCommand())
	cmd.AddCommand(newFilesCommand())
	cmd.AddCommand(newTaskCommand("download", "Download listed package files whose local copy is missing or stale", core.DownloadTaskName))
	cmd.AddCommand(newTaskCommand("extract", "Download and extract listed package files", core.ExtractTaskName))
	cmd.AddCommand(newTaskCommand("clean", "Remove downloaded package files", core.CleanTaskName))
	cmd.AddCommand(newSyncCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <project>",
		Short: "Print the numeric ID of a project path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd, nil)
			if err != nil {
				return err
			}
			project, err := app.project(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), project.ID())
			return err
		},
	}
}

func newPackagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "packages <project>",
		Short: "List the packages of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd, nil)
			if err != nil {
				return err
			}
			project, err := app.project(cmd, args[0])
			if err != nil {
				return err
			}
			packages, err := project.Registry().Packages(cmd.Context())
			if err != nil {
				return err
			}
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(writer, "ID\tNAME\tVERSION\tTYPE\tSTATUS")
			for _, item := range packages {
				_, _ = fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\n", item.ID, item.Name, item.Version, item.PackageType, item.Status)
			}
			return writer.Flush()
		},
	}
}

func newFilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "files <project> <package> <version>",
		Short: "List the files of a package version",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd, nil)
			if err != nil {
				return err
			}
			project, err := app.project(cmd, args[0])
			if err != nil {
				return err
			}
			files, err := project.Registry().PackageFiles(cmd.Context(), args[1], args[2])
			if err != nil {
				return err
			}
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(writer, "ID\tFILE\tSIZE\tHASH")
			for _, file := range files {
				_, _ = fmt.Fprintf(writer, "%d\t%s\t%s\t%s:%s\n",
					file.ID, file.FileName, strconv.FormatInt(file.Size, 10), file.HashType(), file.Hash())
			}
			return writer.Flush()
		},
	}
}

// newTaskCommand runs one per-artifact task (and whatever it depends on) for
// every listed artifact. Non-flag arguments filter by package name.
func newTaskCommand(name, short string, taskName func(key string) string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [package-name...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd, args)
			if err != nil {
				return err
			}
			specs, err := app.artifacts()
			if err != nil {
				return err
			}
			graph := core.NewTaskGraph()
			var tasks []string
			for _, spec := range specs {
				artifact, err := app.session.Artifact(cmd.Context(), spec)
				if err != nil {
					return err
				}
				if err = core.RegisterArtifactTasks(graph, artifact); err != nil {
					return err
				}
				tasks = append(tasks, taskName(artifact.Key()))
			}
			return graph.Run(cmd.Context(), tasks...)
		},
	}
}

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [package-name...]",
		Short: "Download and extract every listed artifact concurrently",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd, args)
			if err != nil {
				return err
			}
			specs, err := app.artifacts()
			if err != nil {
				return err
			}
			lookup := func(spec contracts.ArtifactSpec) (core.ArtifactOperations, error) {
				artifact, err := app.session.Artifact(cmd.Context(), spec)
				if err != nil {
					return nil, err
				}
				return artifact, nil
			}
			if failed := NewSyncApp(specs, lookup).Run(cmd.Context()); failed > 0 {
				return fmt.Errorf("%d of %d artifacts failed", failed, len(specs))
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "glpkg [%s]\n", ldflagsSoftwareVersion)
		},
	}
}

func (this *App) project(cmd *cobra.Command, reference string) (*core.Project, error) {
	server, err := this.session.Server("")
	if err != nil {
		return nil, err
	}
	return server.Project(cmd.Context(), reference)
}
