package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"maestro/config"
	"maestro/core/catalog"

	"github.com/spf13/cobra"
)

var (
	searchTerm string
	searchType string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Search the external music catalog",
	Long:  `Run a one-off search against the configured music catalog and print the results.`,
	Run: func(cmd *cobra.Command, args []string) {
		if searchTerm == "" {
			fmt.Println("Provide a search term with --term")
			os.Exit(1)
		}
		if !catalog.ValidSearchType(searchType) {
			fmt.Printf("Unknown search type %q (want track, artist or album)\n", searchType)
			os.Exit(1)
		}

		cfg := config.Load()
		client := catalog.NewClient(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		results, err := client.Search(ctx, searchType, searchTerm)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		if len(results) == 0 {
			fmt.Println("No results.")
			return
		}

		fmt.Printf("Found %d results:\n", len(results))
		for i, r := range results {
			switch r.Type {
			case "artist":
				fmt.Printf("%d. %s [%s]\n", i+1, r.Name, r.ID)
			default:
				fmt.Printf("%d. %s - %s [%s]\n", i+1, r.Name, r.ArtistName, r.ID)
			}
		}
	},
}

func init() {
	catalogCmd.Flags().StringVar(&searchTerm, "term", "", "search term")
	catalogCmd.Flags().StringVar(&searchType, "type", "track", "search type: track, artist or album")
	rootCmd.AddCommand(catalogCmd)
}
