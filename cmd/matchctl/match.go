package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/your-org/footwatch/internal/matching"
	"github.com/your-org/footwatch/internal/storage"
)

var matchCaseCmd = &cobra.Command{
	Use:   "match-case <case-id>",
	Short: "Pair a case with all active footage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMatch(args[0], (*matching.Matcher).MatchNewCase)
	},
}

var matchFootageCmd = &cobra.Command{
	Use:   "match-footage <footage-id>",
	Short: "Pair footage with all open cases",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMatch(args[0], (*matching.Matcher).MatchNewFootage)
	},
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby <location>",
	Short: "List active footage whose location resembles the given one",
	Args:  cobra.ExactArgs(1),
	RunE:  runNearby,
}

func init() {
	rootCmd.AddCommand(matchCaseCmd, matchFootageCmd, nearbyCmd)
}

func openMatcher() (*matching.Matcher, *storage.PostgresStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return matching.NewMatcher(db, cfg.Matching.MinScore), db, nil
}

func runMatch(rawID string, match func(*matching.Matcher, context.Context, uuid.UUID) (int, error)) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", rawID, err)
	}

	matcher, db, err := openMatcher()
	if err != nil {
		return err
	}
	defer db.Close()

	created, err := match(matcher, context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Printf("Created %d new matches\n", created)
	return nil
}

func runNearby(cmd *cobra.Command, args []string) error {
	matcher, db, err := openMatcher()
	if err != nil {
		return err
	}
	defer db.Close()

	footage, err := matcher.FindNearbyFootage(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(footage) == 0 {
		fmt.Println("No nearby footage")
		return nil
	}
	for _, f := range footage {
		fmt.Printf("%s  %-40s  %s\n", f.ID, f.Title, f.LocationName)
	}
	return nil
}
