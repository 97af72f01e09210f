package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/snaptune/internal/catalog"
	"github.com/kalambet/snaptune/internal/config"
	"github.com/kalambet/snaptune/internal/engine"
	"github.com/kalambet/snaptune/internal/ranking"
)

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Seed the song catalog from a JSON file",
	Long: `Seed the song catalog from a JSON file.

The file is an array of {artist, track, description, language} objects.
Each description is embedded with the configured embedding model and the
finished records are written to the catalog database.

Example:
  snaptune seed ./songs.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		entries, err := catalog.ReadSeedFile(args[0])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("seed file %s contains no songs", args[0])
		}

		ctx := cmd.Context()
		eng := engine.NewOllamaEngine(cfg.Ollama.BaseURL)
		if err := engine.EnsureReady(ctx, eng, os.Stderr, cfg.Ollama.EmbedModel); err != nil {
			return err
		}

		store, err := catalog.OpenStore(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening catalog store: %w", err)
		}
		defer store.Close()

		printStep("Embedding %d songs...", len(entries))
		seeder := catalog.NewSeeder(store, ranking.NewEmbedder(eng, cfg.Ollama.EmbedModel))
		count, err := seeder.Seed(ctx, entries)
		if err != nil {
			return err
		}

		printSuccess("Seeded %d songs into the catalog", count)
		return nil
	},
}

// --- login ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the music studio",
	Long: `Authenticate with the music studio.

Opens a browser window on the studio's entry page. Complete the sign-in
there; once the studio's workspace loads, the session is saved locally and
reused by 'snaptune compose' until it expires.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		s := newStudio(cfg)
		if s.Sessions().Valid() {
			printSuccess("Studio session already valid at %s", s.Sessions().Path())
			return nil
		}

		printStep("Opening browser, complete the sign-in in the window...")
		if err := s.EnsureSession(); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		printSuccess("Studio session saved at %s", s.Sessions().Path())
		return nil
	},
}

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend <photo>",
	Short: "Recommend catalog songs for a photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		photo, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading photo: %w", err)
		}

		note, _ := cmd.Flags().GetString("note")
		languages, _ := cmd.Flags().GetString("languages")
		artists, _ := cmd.Flags().GetString("artists")
		topN, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postPhoto(cmd.Context(), "/recommendations", photo, args[0], map[string]string{
			"manual_description": note,
			"languages":          languages,
			"artists":            artists,
			"top_n":              fmt.Sprintf("%d", topN),
		})
		if err != nil {
			return err
		}

		var result struct {
			Description string `json:"description"`
			Matches     []struct {
				Song struct {
					Artist   string `json:"artist"`
					Track    string `json:"track"`
					Language string `json:"language"`
				} `json:"song"`
				Score float32 `json:"score"`
			} `json:"matches"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("\n%s %s\n", colorize(colorBold, "Photo:"), result.Description)
		for i, m := range result.Matches {
			fmt.Printf("%s %s - %s (%s) [score: %.3f]\n",
				colorize(colorCyan, fmt.Sprintf("%2d.", i+1)),
				m.Song.Artist, m.Song.Track, m.Song.Language, m.Score)
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().String("note", "", "extra details about the photo")
	recommendCmd.Flags().String("languages", "", "comma-separated language categories to keep")
	recommendCmd.Flags().String("artists", "", "comma-separated artist names to keep")
	recommendCmd.Flags().Int("limit", 5, "maximum number of recommendations")
}

// --- compose ---

var composeCmd = &cobra.Command{
	Use:   "compose <description>",
	Short: "Write lyrics for a description and render them in the studio",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description := strings.Join(args, " ")
		mood, _ := cmd.Flags().GetString("mood")
		genre, _ := cmd.Flags().GetString("genre")
		language, _ := cmd.Flags().GetString("language")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Generating song, the studio render can take a few minutes...")
		resp, err := client.post(cmd.Context(), "/songs", map[string]string{
			"description": description,
			"mood":        mood,
			"genre":       genre,
			"language":    language,
		})
		if err != nil {
			return err
		}

		var result struct {
			Lyrics     string `json:"lyrics"`
			AudioPath  string `json:"audio_path"`
			AudioError string `json:"audio_error"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("\n%s\n%s\n", colorize(colorBold, "Lyrics"), result.Lyrics)
		if result.AudioPath != "" {
			printSuccess("Audio saved to %s", result.AudioPath)
		} else if result.AudioError != "" {
			printWarning("Audio generation failed: %s", result.AudioError)
		}
		return nil
	},
}

func init() {
	composeCmd.Flags().String("mood", "", "song mood (see 'snaptune styles')")
	composeCmd.Flags().String("genre", "", "song genre (see 'snaptune styles')")
	composeCmd.Flags().String("language", "", "lyrics language (default English)")
}

// --- styles ---

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List supported song moods and genres",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := printStyleList(ctx, client, "/moods", "moods", "Moods"); err != nil {
			return err
		}
		return printStyleList(ctx, client, "/genres", "genres", "Genres")
	},
}

func printStyleList(ctx context.Context, client *apiClient, path, key, label string) error {
	resp, err := client.get(ctx, path)
	if err != nil {
		return err
	}
	var body map[string][]string
	if err := decodeJSON(resp, &body); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", colorize(colorBold, label+":"), strings.Join(body[key], ", "))
	return nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
