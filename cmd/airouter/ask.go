package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"github.com/Maynkbisht/AI-Router/internal/router"
	"github.com/Maynkbisht/AI-Router/pkg/session"
	"github.com/spf13/cobra"
)

var errStreamFailed = errors.New("no provider answered")

var (
	askStream bool
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Route a single prompt and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		r, _, err := newRouter(ctx, cfg)
		if err != nil {
			return err
		}
		prompt := strings.Join(args, " ")
		out := cmd.OutOrStdout()

		if askStream {
			resp, err := r.Stream(ctx, session.New(session.NewID()), prompt, func(chunk string) error {
				_, err := io.WriteString(out, chunk)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			if !resp.Success {
				return errStreamFailed
			}
			return nil
		}

		resp, err := r.Route(ctx, prompt)
		if err != nil {
			return err
		}
		if askJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			return routeErr(resp)
		}
		printResponse(out, resp)
		return routeErr(resp)
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <prompt>",
	Short: "Classify a prompt and show the provider ranking without calling any provider",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		r, _, err := newRouter(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		prompt := strings.Join(args, " ")
		result, ranked := r.Rank(prompt)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Category:   %s\n", result.Category)
		fmt.Fprintf(out, "Confidence: %.2f\n", result.Confidence)
		fmt.Fprintf(out, "Keywords:   %s\n", strings.Join(result.Keywords, ", "))
		fmt.Fprintf(out, "Why:        %s\n\n", classifier.Explain(prompt))

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tPROVIDER\tNAME\tSCORE")
		for i, sc := range ranked {
			d := sc.Provider.Descriptor()
			fmt.Fprintf(w, "%d\t%s\t%s\t%.3f\n", i+1, d.ID, d.Name, sc.Score)
		}
		return w.Flush()
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the registered providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		r, _, err := newRouter(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tQUALITY\tSTRENGTHS")
		for _, d := range r.Providers() {
			strengths := make([]string, len(d.Strengths))
			for i, s := range d.Strengths {
				strengths[i] = string(s)
			}
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", d.ID, d.Name, d.Quality, strings.Join(strengths, ","))
		}
		return w.Flush()
	},
}

func init() {
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer word by word")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full routing result as JSON")
	rootCmd.AddCommand(askCmd, classifyCmd, providersCmd)
}

func printResponse(w io.Writer, resp *router.Response) {
	if !resp.Success {
		return
	}
	fmt.Fprintf(w, "[%s via %s]\n%s\n", resp.Category, resp.ProviderName, resp.Response)
}

// routeErr turns a failed routing outcome into a command error.
func routeErr(resp *router.Response) error {
	if resp == nil || resp.Success {
		return nil
	}
	return errors.New(resp.Error)
}
