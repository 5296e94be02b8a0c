package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/wiki-index-sync/internal/app"
	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/store"
)

// seedFile is the YAML layout read by the seed command
type seedFile struct {
	Documents []seedDocument `yaml:"documents"`
}

type seedDocument struct {
	// Key is a serialized document key such as "xwiki:Main.WebHome;fr"
	Key     string `yaml:"key"`
	Version string `yaml:"version"`
	Title   string `yaml:"title,omitempty"`
	Content string `yaml:"content,omitempty"`
	// Deleted removes the document instead of saving it
	Deleted bool `yaml:"deleted,omitempty"`
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Load documents from a YAML file into the document store",
		Long: `Save or delete the documents listed in FILE. Useful to prepare a store for
tests and demonstrations.

  documents:
    - key: "xwiki:Main.WebHome"
      version: "1.1"
      title: Home
      content: Welcome
    - key: "xwiki:Main.Old"
      deleted: true`,
		Args: cobra.ExactArgs(1),
		RunE: runSeed,
	}
	return cmd
}

// parseSeedFile splits the file into documents to save and documents to delete
func parseSeedFile(data []byte) (save, remove []store.Document, err error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, d := range f.Documents {
		key, err := reference.ParseKey(d.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("documents[%d]: %w", i, err)
		}
		doc := store.Document{Key: key, Version: d.Version, Title: d.Title, Content: d.Content}
		if d.Deleted {
			remove = append(remove, doc)
			continue
		}
		if d.Version == "" {
			return nil, nil, fmt.Errorf("documents[%d] (%s): version is required", i, d.Key)
		}
		save = append(save, doc)
	}
	return save, remove, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Clean(args[0]))
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	save, remove, err := parseSeedFile(data)
	if err != nil {
		return err
	}

	ctx := contextOrBackground(cmd)
	st, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.SaveDocuments(ctx, save); err != nil {
		return err
	}
	for _, doc := range remove {
		if err := st.DeleteDocument(ctx, doc); err != nil {
			return err
		}
	}
	slog.Info("Seeded document store", "saved", len(save), "deleted", len(remove))
	return nil
}
