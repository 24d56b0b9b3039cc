package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/7and1/difyrun/internal/core/domain"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage workflow sources",
	Long: `Manage the GitHub repositories difyrun syncs workflows from.
Without a subcommand, configured sources are listed.`,
	RunE: runSourcesList,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourcesList,
}

var (
	sourceAddName     string
	sourceAddDesc     string
	sourceAddBranch   string
	sourceAddRootPath string
	sourceAddExcludes []string
	sourceAddTags     []string
	sourceAddWeight   int
	sourceAddFeatured bool
	sourceAddPrune    bool
	sourceAddInactive bool
)

var sourcesAddCmd = &cobra.Command{
	Use:   "add [source-id] [owner/repo]",
	Short: "Add a new source",
	Args:  cobra.ExactArgs(2),
	RunE:  runSourcesAdd,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [source-id]",
	Short: "Remove a source",
	Long: `Removes a source configuration. Workflows already ingested from it
stay in the catalog.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesRemove,
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show [source-id]",
	Short: "Show a source's configuration and sync status",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesShow,
}

func init() {
	sourcesAddCmd.Flags().StringVar(&sourceAddName, "name", "", "human-readable name")
	sourcesAddCmd.Flags().StringVar(&sourceAddDesc, "description", "", "source description")
	sourcesAddCmd.Flags().StringVar(&sourceAddBranch, "branch", "", "branch to sync (default main)")
	sourcesAddCmd.Flags().StringVar(&sourceAddRootPath, "root-path", "", "restrict scanning to this path prefix")
	sourcesAddCmd.Flags().StringSliceVar(&sourceAddExcludes, "exclude", nil, "skip paths containing this substring (repeatable)")
	sourcesAddCmd.Flags().StringSliceVar(&sourceAddTags, "tag", nil, "default tag for every workflow from this source (repeatable)")
	sourcesAddCmd.Flags().IntVar(&sourceAddWeight, "weight", 0, "display weight, higher sorts first")
	sourcesAddCmd.Flags().BoolVar(&sourceAddFeatured, "featured", false, "mark source as featured")
	sourcesAddCmd.Flags().BoolVar(&sourceAddPrune, "prune", false, "remove workflows whose file disappeared upstream")
	sourcesAddCmd.Flags().BoolVar(&sourceAddInactive, "inactive", false, "create the source disabled")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
	sourcesCmd.AddCommand(sourcesShowCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if sourceManager == nil {
		return errors.New("source service not configured")
	}

	sources, err := sourceManager.List(context.Background(), false)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No sources configured.")
		return nil
	}

	cmd.Println("Configured sources:")
	for _, src := range sources {
		state := "active"
		if !src.Active {
			state = "inactive"
		}
		cmd.Printf("  %-16s %-40s %s, %d workflows\n",
			src.ID, src.FullName()+"@"+src.Ref(), state, src.TotalWorkflows)
		if src.LastSyncError != "" {
			cmd.Printf("  %-16s last sync error: %s\n", "", src.LastSyncError)
		}
	}

	return nil
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	if sourceManager == nil {
		return errors.New("source service not configured")
	}

	id := args[0]
	owner, repo, ok := strings.Cut(args[1], "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("invalid repository %q, expected owner/repo", args[1])
	}

	name := sourceAddName
	if name == "" {
		name = repo
	}

	source := domain.Source{
		ID:           id,
		Name:         name,
		Description:  sourceAddDesc,
		Owner:        owner,
		Repo:         repo,
		Branch:       sourceAddBranch,
		RootPath:     sourceAddRootPath,
		ExcludePaths: sourceAddExcludes,
		DefaultTags:  sourceAddTags,
		Weight:       sourceAddWeight,
		Featured:     sourceAddFeatured,
		Active:       !sourceAddInactive,
		Prune:        sourceAddPrune,
	}

	if err := sourceManager.Add(context.Background(), source); err != nil {
		return fmt.Errorf("failed to add source: %w", err)
	}

	cmd.Printf("Added source %s (%s).\n", id, source.FullName())
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	if sourceManager == nil {
		return errors.New("source service not configured")
	}

	id := args[0]
	if err := sourceManager.Remove(context.Background(), id); err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}

	cmd.Printf("Removed source %s.\n", id)
	return nil
}

func runSourcesShow(cmd *cobra.Command, args []string) error {
	if sourceManager == nil {
		return errors.New("source service not configured")
	}

	src, err := sourceManager.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get source: %w", err)
	}

	cmd.Printf("ID:          %s\n", src.ID)
	cmd.Printf("Name:        %s\n", src.Name)
	if src.Description != "" {
		cmd.Printf("Description: %s\n", src.Description)
	}
	cmd.Printf("Repository:  %s@%s\n", src.FullName(), src.Ref())
	if src.RootPath != "" {
		cmd.Printf("Root path:   %s\n", src.RootPath)
	}
	if len(src.ExcludePaths) > 0 {
		cmd.Printf("Excludes:    %s\n", strings.Join(src.ExcludePaths, ", "))
	}
	if len(src.DefaultTags) > 0 {
		cmd.Printf("Tags:        %s\n", strings.Join(src.DefaultTags, ", "))
	}
	cmd.Printf("Weight:      %d\n", src.Weight)
	cmd.Printf("Active:      %t\n", src.Active)
	cmd.Printf("Featured:    %t\n", src.Featured)
	cmd.Printf("Prune:       %t\n", src.Prune)
	cmd.Printf("Workflows:   %d\n", src.TotalWorkflows)
	if src.LastSyncedAt != nil {
		cmd.Printf("Last sync:   %s\n", src.LastSyncedAt.Format(time.RFC3339))
	} else {
		cmd.Println("Last sync:   never")
	}
	if src.LastSyncError != "" {
		cmd.Printf("Last error:  %s\n", src.LastSyncError)
	}

	return nil
}
