package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/profile-screener/internal/score"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen a subject profile against the configured sources",
	Run: func(cmd *cobra.Command, _ []string) {
		runScreen(cmd)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringArrayP("field", "F", nil, "subject field as key=value, repeatable (e.g. -F name=\"Rahul Mehra\")")
	screenCmd.Flags().StringP("text", "t", "", "free-form profile text, extracted with the configured AI model")
	screenCmd.Flags().StringArrayP("source", "s", nil, "source to screen (path to .csv/.json, or table:NAME); default is every discovered source")
	screenCmd.Flags().IntP("limit", "n", 0, "cap the number of returned groups")
}

func runScreen(cmd *cobra.Command) {
	d := mustSetup()
	defer d.Close()

	pairs, _ := cmd.Flags().GetStringArray("field")
	text, _ := cmd.Flags().GetString("text")
	sourceArgs, _ := cmd.Flags().GetStringArray("source")
	limit, _ := cmd.Flags().GetInt("limit")

	subject, err := buildSubject(d, pairs, text)
	if err != nil {
		d.log.Fatal("building subject profile", zap.Error(err))
	}

	descs, err := selectSources(d, sourceArgs)
	if err != nil {
		d.log.Fatal("selecting sources", zap.Error(err))
	}
	if len(descs) == 0 {
		d.log.Fatal("no sources found",
			zap.Strings("data_dirs", d.cfg.DataDirs),
			zap.String("hint", "point data-dirs at your record files or pass --source"))
	}

	d.log.Info("screening subject",
		zap.Int("fields", len(subject)),
		zap.Int("sources", len(descs)))

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()

	result, err := d.engine.Match(ctx, subject, descs)
	if err != nil {
		d.log.Fatal("screening failed", zap.Error(err))
	}

	if limit > 0 && limit < len(result.Groups) {
		result.Groups = result.Groups[:limit]
	}

	printJSON(result)

	d.log.Info("screening finished",
		zap.Int("groups", len(result.Groups)),
		zap.Bool("partial", result.Partial))
}

// buildSubject assembles the profile from --field pairs, or extracts it
// from --text when no pairs are given.
func buildSubject(d *deps, pairs []string, text string) (score.SubjectProfile, error) {
	if len(pairs) > 0 {
		fields := make(map[string]string, len(pairs))
		for _, pair := range pairs {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid field %q, want key=value", pair)
			}
			fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		return score.ParseProfile(fields)
	}

	if strings.TrimSpace(text) != "" {
		if d.extractor == nil {
			return nil, fmt.Errorf("--text requires ai.enabled in the config")
		}
		ex, err := d.extractor.Extract(context.Background(), text)
		if err != nil {
			return nil, err
		}
		return ex.Profile, nil
	}

	return nil, fmt.Errorf("a subject is required: pass --field key=value or --text")
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(out))
}
