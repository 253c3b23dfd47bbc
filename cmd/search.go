package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hushh/deepsearch/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one deep search and print the session",
	Example: `  deepsearch search --name "Ada Lovelace" --email ada@example.com
  deepsearch search --name "Ada Lovelace" --pivot-platform LinkedIn --pivot-url https://linkedin.com/in/ada --pivot-username ada -o yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		req, err := searchRequestFromFlags(cmd)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")

		env, err := initSearch(ctx, cfg, "search")
		if err != nil {
			return err
		}
		defer env.Close()

		sess, err := env.Orchestrator.Search(ctx, req)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.PersistTimeout()+time.Second)
		defer cancel()
		_ = env.Orchestrator.Wait(waitCtx)

		return writeSession(os.Stdout, sess, output)
	},
}

func searchRequestFromFlags(cmd *cobra.Command) (model.SearchRequest, error) {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	phone, _ := cmd.Flags().GetString("phone")
	all, _ := cmd.Flags().GetBool("all-phases")
	platform, _ := cmd.Flags().GetString("pivot-platform")
	profileURL, _ := cmd.Flags().GetString("pivot-url")
	username, _ := cmd.Flags().GetString("pivot-username")

	req := model.SearchRequest{Name: name, Email: email, Phone: phone, RunAllPhases: all}
	if platform != "" || profileURL != "" || username != "" {
		if platform == "" || profileURL == "" || username == "" {
			return req, eris.New("--pivot-platform, --pivot-url, and --pivot-username must be set together")
		}
		req.PivotProfile = &model.PivotSeed{Platform: platform, ProfileURL: profileURL, Username: username}
	}
	return req, nil
}

// writeSession encodes a session as indented JSON or YAML.
func writeSession(out io.Writer, sess *model.SearchSession, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(sess); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	default:
		return eris.Errorf("unsupported output format: %s", format)
	}
}

func init() {
	f := searchCmd.Flags()
	f.String("name", "", "full name to search for (required)")
	f.String("email", "", "email address")
	f.String("phone", "", "phone number")
	f.Bool("all-phases", false, "run every phase regardless of confidence")
	f.String("pivot-platform", "", "confirmed profile platform (enables pivot mode)")
	f.String("pivot-url", "", "confirmed profile URL")
	f.String("pivot-username", "", "confirmed profile username")
	f.StringP("output", "o", "json", "output format: json or yaml")
	_ = searchCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(searchCmd)
}
