package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/value-compass/internal/compass"
	"github.com/ZanzyTHEbar/value-compass/internal/privacy"
	"github.com/ZanzyTHEbar/value-compass/internal/ranking"
	"github.com/ZanzyTHEbar/value-compass/internal/types"
)

// answerFile is the YAML answer sheet read by portrait, align and rank.
type answerFile struct {
	Country string           `yaml:"country"`
	Answers []compass.Answer `yaml:"answers"`
	Skipped []string         `yaml:"skipped"`
}

func readAnswerFile(path string) (*answerFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var af answerFile
	if err := dec.Decode(&af); err != nil {
		if errors.Is(err, io.EOF) {
			return &af, nil
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &af, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type seedResult struct {
	DataDir    string `json:"data_dir"`
	Dimensions int    `json:"dimensions"`
	Questions  int    `json:"questions"`
	Actors     int    `json:"actors"`
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the catalog into a sqlite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.dataDir == "" {
				return errors.New("--db is required for seed")
			}
			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			return printJSON(cmd.OutOrStdout(), seedResult{
				DataDir:    s.dataDir,
				Dimensions: len(s.catalog.Dimensions),
				Questions:  len(s.catalog.Questions),
				Actors:     len(s.catalog.Actors),
			})
		},
	}
}

// sheetFlags are the flags of the commands that score an answer file.
type sheetFlags struct {
	answers string
	country string
}

func (f *sheetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.answers, "answers", "", "YAML answer sheet")
	cmd.Flags().StringVar(&f.country, "country", "", "country of the sheet (overrides the file)")
	_ = cmd.MarkFlagRequired("answers")
}

// preview scores the answer file without persisting it.
func (f *sheetFlags) preview(ctx context.Context, s *session) (*compass.Preview, string, error) {
	af, err := readAnswerFile(f.answers)
	if err != nil {
		return nil, "", err
	}
	country := af.Country
	if f.country != "" {
		country = f.country
	}

	sheet, err := s.service.NewSheet(ctx, country, af.Answers, af.Skipped)
	if err != nil {
		return nil, "", err
	}
	preview, err := s.service.Preview(ctx, sheet, country)
	if err != nil {
		return nil, "", err
	}
	return preview, country, nil
}

func (c *cli) portraitCmd() *cobra.Command {
	var f sheetFlags
	cmd := &cobra.Command{
		Use:   "portrait",
		Short: "Print the portrait of an answer sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			preview, _, err := f.preview(ctx, s)
			if err != nil {
				return err
			}
			dims, err := s.service.Dimensions(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), types.PreviewResponse{
				PortraitResponse: types.NewPortraitResponse("", preview.Portrait, dims),
				Answered:         preview.Answered,
				Skipped:          preview.Skipped,
				Total:            preview.Total,
				Progress:         preview.Progress,
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) alignCmd() *cobra.Command {
	var (
		f     sheetFlags
		actor string
	)
	cmd := &cobra.Command{
		Use:   "align",
		Short: "Compare an answer sheet with one actor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			preview, _, err := f.preview(ctx, s)
			if err != nil {
				return err
			}
			alignment, err := s.service.ComparePortrait(ctx, preview.Portrait, actor)
			if err != nil {
				return fmt.Errorf("actor %s: %w", actor, err)
			}
			return printJSON(cmd.OutOrStdout(), alignment)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&actor, "actor", "", "actor key")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func (c *cli) rankCmd() *cobra.Command {
	var (
		f     sheetFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the catalog actors against an answer sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}
			ctx := cmd.Context()
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			preview, country, err := f.preview(ctx, s)
			if err != nil {
				return err
			}
			ranked, err := s.service.RankPortrait(ctx, preview.Portrait, country, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), types.ListResponse[ranking.Ranked]{Items: ranked, Total: len(ranked)})
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum rows; 0 means all")
	return cmd
}

func (c *cli) submitCmd() *cobra.Command {
	var (
		f       sheetFlags
		subject string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Store an answer sheet for a subject and print its portrait",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.dataDir == "" {
				return errors.New("--db is required for submit")
			}
			af, err := readAnswerFile(f.answers)
			if err != nil {
				return err
			}
			country := af.Country
			if f.country != "" {
				country = f.country
			}

			ctx := cmd.Context()
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := s.service.SubmitAnswers(ctx, subject, country, af.Answers)
			if err != nil {
				return err
			}
			dims, err := s.service.Dimensions(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), types.NewPortraitResponse(subject, p, dims))
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&subject, "subject", "", "subject id")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

type purgeResult struct {
	SubjectsDeleted int64 `json:"subjects_deleted"`
}

func (c *cli) purgeCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete subjects that have not answered within the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.dataDir == "" {
				return errors.New("--db is required for purge")
			}
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			ctx := cmd.Context()
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := privacy.NewService(s.repo, olderThan, nil).PurgeStale(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), purgeResult{SubjectsDeleted: n})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "retention window")
	return cmd
}

func (c *cli) actorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actor <key>",
		Short: "Show an actor with its portrait and recent interventions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			detail, err := s.service.ActorDetail(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), detail)
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	var question string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print answer statistics per dimension, or for one question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if question != "" {
				stats, err := s.service.QuestionStats(ctx, question)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			}
			stats, err := s.service.DimensionStats(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVar(&question, "question", "", "question key")
	return cmd
}
