package rostertool

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/teammatch/internal/domain/model"
	"github.com/okian/teammatch/pkg/logger"
)

const app = "shortlist"

// NewRootCommand builds the shortlist command tree.
func NewRootCommand() *cobra.Command {
	var (
		debug   bool
		jsonLog bool
	)
	root := &cobra.Command{
		Use:          app,
		Short:        "shortlist ranks candidate members for a team by role overlap",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			format := "console"
			if jsonLog {
				format = "json"
			}
			if err := logger.Init(format); err != nil {
				return err
			}
			if debug {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
	}
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	root.PersistentFlags().BoolVarP(&jsonLog, "json", "j", false, "json format for logging")

	root.AddCommand(newRankCommand(), newRemoteCommand(), newGenerateCommand())
	return root
}

func newRankCommand() *cobra.Command {
	var (
		rosterPath string
		teamID     string
		limit      int
		sep        string
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank candidates from a local YAML roster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("roster", rosterPath, "team", teamID); err != nil {
				return err
			}
			ctx := cmd.Context()
			cands, res, err := RankFile(ctx, rosterPath, sep, teamID, limit)
			if err != nil {
				return err
			}
			if fault := res.Fault(); fault != nil {
				logger.Get().Warn(ctx, "members skipped", logger.Error(fault))
			}
			printCandidates(cmd.OutOrStdout(), teamID, cands, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&rosterPath, "roster", "r", "", "YAML roster file")
	cmd.Flags().StringVarP(&teamID, "team", "t", "", "team id to staff")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum candidates (default 3)")
	cmd.Flags().StringVar(&sep, "separator", model.DefaultRoleSeparator, "delimiter of user role ids")
	return cmd
}

func newRemoteCommand() *cobra.Command {
	var (
		baseURL   string
		teamID    string
		limit     int
		timeout   time.Duration
		async     bool
		requestID string
		wait      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Ask a running service for a shortlist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("team", teamID); err != nil {
				return err
			}
			ctx := cmd.Context()
			client := NewClient(baseURL, timeout)

			if !async {
				sl, err := client.Shortlist(ctx, teamID, limit)
				if err != nil {
					return err
				}
				printRemote(cmd.OutOrStdout(), sl)
				return nil
			}

			ack, err := client.Submit(ctx, requestID, teamID, limit)
			if err != nil {
				return err
			}
			logger.Get().Debug(ctx, "match request queued",
				logger.String("requestID", ack.RequestID),
				logger.String("status", ack.Status),
			)
			waitCtx, cancel := context.WithTimeout(ctx, wait)
			defer cancel()
			sl, err := client.WaitFor(waitCtx, teamID, ack.RequestID)
			if err != nil {
				return err
			}
			printRemote(cmd.OutOrStdout(), sl)
			return nil
		},
	}
	cmd.Flags().StringVarP(&baseURL, "url", "u", defaultBaseURL, "base URL of the service")
	cmd.Flags().StringVarP(&teamID, "team", "t", "", "team id to staff")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum candidates (service default when 0)")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().BoolVar(&async, "async", false, "queue a match request and poll for its result")
	cmd.Flags().StringVar(&requestID, "request-id", "", "idempotency key for --async (generated when empty)")
	cmd.Flags().DurationVar(&wait, "wait", defaultWait, "how long --async polls for the result")
	return cmd
}

func newGenerateCommand() *cobra.Command {
	var (
		opts GenerateOptions
		out  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic YAML roster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := required("out", out); err != nil {
				return err
			}
			doc, err := Generate(opts)
			if err != nil {
				return err
			}
			if err := WriteYAML(out, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d teams, %d members, %d beacons to %s\n",
				len(doc.Teams), len(doc.Members), len(doc.Beacons), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Teams, "teams", 5, "number of teams")
	cmd.Flags().IntVar(&opts.Users, "users", 50, "number of users, one member each")
	cmd.Flags().IntVar(&opts.Roles, "roles", 8, "size of the role pool")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&opts.Sep, "separator", model.DefaultRoleSeparator, "delimiter of user role ids")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

// required checks name/value pairs and reports the first empty one.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: --%s", ErrMissingFlag, pairs[i])
		}
	}
	return nil
}
