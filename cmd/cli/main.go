package main

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/audio-extract-go/internal/app"
	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/pkg/logger"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "audio-extract",
		Short: "Audio Extract CLI - download music from Spotify and YouTube",
		Long:  `A command-line interface for downloading audio with spotdl and yt-dlp through the audio extract server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(newDownloadCmd("music", "Download a Spotify track, album or playlist with spotdl", domain.BackendSpotify))
	rootCmd.AddCommand(newDownloadCmd("youtube", "Download audio from a YouTube video or playlist with yt-dlp", domain.BackendYouTube))
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(logsCmd)

	historyCmd.Flags().StringP("backend", "b", "", "Filter by backend (spotify, youtube)")
	historyCmd.Flags().StringP("outcome", "o", "", "Filter by outcome (completed, stopped, failed, timed_out)")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of sessions")
	logsCmd.Flags().StringP("date", "d", "", "Day to read (YYYY-MM-DD), default today")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum number of entries")
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newDownloadCmd(use, short string, kind domain.BackendKind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " [url]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ensureServer()
			client := newAPIClient(serverURL)

			output, _ := cmd.Flags().GetString("output")
			detach, _ := cmd.Flags().GetBool("detach")

			// Subscribe before starting so no event is missed
			var events <-chan domain.ProgressEvent
			var errs <-chan error
			if !detach {
				conn, err := client.dialProgress()
				exitOnError(err)
				defer conn.Close()
				events, errs = readEvents(conn)
			}

			var session domain.Session
			err := client.post("/api/v1/downloads/"+use, map[string]string{
				"url":           args[0],
				"output_folder": output,
			}, &session)
			exitOnError(err)

			fmt.Printf("Session %s started (%s)\n", session.ID, kind)
			fmt.Printf("Output: %s\n", session.OutputDirectory)
			if detach {
				return
			}

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(interrupt)

			settled, err := followSession(events, errs, session.ID, os.Stdout, interrupt, func() error {
				return client.post("/api/v1/downloads/stop", nil, nil)
			})
			exitOnError(err)

			if settled.Outcome != domain.OutcomeCompleted {
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output folder (default from server config)")
	cmd.Flags().BoolP("detach", "d", false, "Return after starting instead of following progress")
	return cmd
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active download",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var result domain.StopResult
		exitOnError(newAPIClient(serverURL).post("/api/v1/downloads/stop", nil, &result))
		fmt.Println(result.Message)
		if !result.Success {
			os.Exit(1)
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active download",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var status domain.SessionStatus
		exitOnError(newAPIClient(serverURL).get("/api/v1/downloads/status", &status))

		if status.State == domain.StateIdle {
			fmt.Println("No active download")
			return
		}
		fmt.Printf("State:     %s\n", status.State)
		fmt.Printf("Session:   %s (%s)\n", status.SessionID, status.Backend)
		fmt.Printf("Progress:  %s\n", formatProgress(status.CompletedCount, status.TrackCount))
		if status.CurrentTrack != "" {
			fmt.Printf("Current:   %s\n", status.CurrentTrack)
		}
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [backend]",
	Short: "Check that the downloader executables are available",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		client := newAPIClient(serverURL)

		kinds := []domain.BackendKind{domain.BackendSpotify, domain.BackendYouTube}
		if len(args) == 1 {
			kind, err := domain.ParseBackend(args[0])
			exitOnError(err)
			kinds = []domain.BackendKind{kind}
		}

		allOK := true
		for _, kind := range kinds {
			var status app.BackendStatus
			exitOnError(client.get("/api/v1/backends/"+string(kind), &status))
			if status.Available {
				fmt.Printf("✓ %-8s %s (%s)\n", kind, status.Version, status.Binary)
			} else {
				allOK = false
				fmt.Printf("✗ %-8s %s\n", kind, status.Error)
			}
		}
		if !allOK {
			os.Exit(1)
		}
	},
}

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Pick an output folder with the native dialog",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var result struct {
			Path      string `json:"path"`
			Cancelled bool   `json:"cancelled"`
		}
		exitOnError(newAPIClient(serverURL).post("/api/v1/folder", nil, &result))
		if result.Cancelled {
			fmt.Println("Cancelled")
			return
		}
		fmt.Println(result.Path)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past download sessions",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		backend, _ := cmd.Flags().GetString("backend")
		outcome, _ := cmd.Flags().GetString("outcome")
		limit, _ := cmd.Flags().GetInt("limit")

		query := url.Values{}
		if backend != "" {
			query.Set("backend", backend)
		}
		if outcome != "" {
			query.Set("outcome", outcome)
		}
		query.Set("limit", strconv.Itoa(limit))

		var result struct {
			Sessions []domain.Session `json:"sessions"`
		}
		exitOnError(newAPIClient(serverURL).get("/api/v1/sessions?"+query.Encode(), &result))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBACKEND\tOUTCOME\tTRACKS\tURL\tSTARTED")
		for _, s := range result.Sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				truncate(s.ID, 8),
				s.Backend,
				s.Outcome,
				formatProgress(s.CompletedCount, s.TrackCount),
				truncate(s.SourceURL, 40),
				s.StartedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show session details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var s domain.Session
		exitOnError(newAPIClient(serverURL).get("/api/v1/sessions/"+url.PathEscape(args[0]), &s))

		fmt.Printf("Session Details:\n")
		fmt.Printf("  ID:       %s\n", s.ID)
		fmt.Printf("  Backend:  %s\n", s.Backend)
		fmt.Printf("  URL:      %s\n", s.SourceURL)
		fmt.Printf("  Output:   %s\n", s.OutputDirectory)
		fmt.Printf("  Outcome:  %s\n", s.Outcome)
		fmt.Printf("  Tracks:   %s\n", formatProgress(s.CompletedCount, s.TrackCount))
		fmt.Printf("  Started:  %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
		if s.ErrorMessage != "" {
			fmt.Printf("  Error:    %s\n", s.ErrorMessage)
		}
		for _, f := range s.FileList() {
			fmt.Printf("  File:     %s\n", f)
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show session statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var stats domain.SessionStats
		exitOnError(newAPIClient(serverURL).get("/api/v1/sessions/stats", &stats))

		fmt.Println("Session Statistics:")
		fmt.Printf("  Total:      %d\n", stats.Total)
		fmt.Printf("  Completed:  %d\n", stats.Completed)
		fmt.Printf("  Stopped:    %d\n", stats.Stopped)
		fmt.Printf("  Failed:     %d\n", stats.Failed)
		fmt.Printf("  Timed out:  %d\n", stats.TimedOut)
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs (session, error, download)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		if !logger.ValidCategory(logger.LogCategory(args[0])) {
			exitOnError(fmt.Errorf("unknown category %q", args[0]))
		}
		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")

		query := url.Values{}
		query.Set("limit", strconv.Itoa(limit))
		if date != "" {
			query.Set("date", date)
		}

		var result struct {
			Entries []logger.LogEntry `json:"entries"`
		}
		exitOnError(newAPIClient(serverURL).get("/api/v1/logs/"+args[0]+"?"+query.Encode(), &result))

		for _, e := range result.Entries {
			if e.Timestamp == "" {
				fmt.Println(e.Message)
				continue
			}
			fmt.Printf("%s %-5s %s\n", e.Timestamp, e.Level, e.Message)
		}
	},
}

func formatProgress(completed int, total *int) string {
	if total == nil {
		return strconv.Itoa(completed)
	}
	return fmt.Sprintf("%d/%d", completed, *total)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
