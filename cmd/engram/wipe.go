package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all data in the configured group",
	RunE:  runWipe,
}

func init() {
	rootCmd.AddCommand(wipeCmd)
	wipeCmd.Flags().BoolVar(&wipeYes, "yes", false, "confirm the wipe")
}

func runWipe(cmd *cobra.Command, args []string) error {
	if !wipeYes {
		return fmt.Errorf("wiping group %q deletes all of its data; re-run with --yes to confirm", rootConfig.GroupID)
	}

	client, err := buildClient(cmd.Context(), rootConfig)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	if err := client.ClearGraph(cmd.Context()); err != nil {
		return err
	}
	fmt.Printf("Cleared group %q\n", rootConfig.GroupID)
	return nil
}
