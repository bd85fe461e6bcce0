// foldvault is a small operator CLI over the folding engine: compress a
// file into a vault directory, decompress it back from its record
// sidecar, and summarize what a vault holds.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/INLOpen/foldvault/config"
	"github.com/INLOpen/foldvault/engine"
	"github.com/INLOpen/foldvault/vault"
)

var (
	cfgPath  string
	vaultDir string
)

func main() {
	root := &cobra.Command{
		Use:           "foldvault",
		Short:         "Adaptive multi-stage compression vault",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&vaultDir, "vault-dir", "", "vault directory (overrides config)")

	root.AddCommand(newCompressCmd(), newDecompressCmd(), newStatsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(cfgPath)
}

func buildEngine(cfg *config.Config) (*engine.Engine, string, error) {
	dir := cfg.Engine.Vault.Dir
	if vaultDir != "" {
		dir = vaultDir
	}
	store, err := vault.NewFSStore(dir)
	if err != nil {
		return nil, "", err
	}
	eng, err := engine.NewEngine(engine.Options{
		Config: cfg,
		Store:  store,
		Logger: cfg.NewLogger().With("component", "FoldingEngine"),
	})
	if err != nil {
		return nil, "", err
	}
	return eng, dir, nil
}

func newCompressCmd() *cobra.Command {
	var (
		recordPath string
		hint       string
		metaPairs  []string
	)
	cmd := &cobra.Command{
		Use:   "compress <file>",
		Short: "Fold a file into the vault and write its record sidecar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, dir, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			meta := vault.Metadata{}
			for _, pair := range metaPairs {
				k, v, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid --meta %q, want key=value", pair)
				}
				meta[k] = v
			}

			rec, err := eng.Compress(context.Background(), content, engine.CompressOptions{
				Name:            filepath.Base(args[0]),
				ContentTypeHint: hint,
				Metadata:        meta,
			})
			if err != nil {
				return err
			}

			if recordPath == "" {
				recordPath = filepath.Join(dir, rec.ID+".record.json")
			}
			if err := vault.WriteRecordFile(recordPath, rec); err != nil {
				return err
			}

			fmt.Printf("record:   %s\n", recordPath)
			fmt.Printf("chain:    %s\n", rec.Chain)
			fmt.Printf("original: %d bytes\n", rec.OriginalLen)
			fmt.Printf("stored:   %d bytes (%.1f%%)\n", rec.StoredLen,
				100*float64(rec.StoredLen)/float64(max(rec.OriginalLen, 1)))
			return nil
		},
	}
	cmd.Flags().StringVar(&recordPath, "record", "", "record sidecar output path (default <vault-dir>/<id>.record.json)")
	cmd.Flags().StringVar(&hint, "hint", "", "content class hint: text, markup, code, or binary")
	cmd.Flags().StringArrayVar(&metaPairs, "meta", nil, "metadata key=value (repeatable)")
	return cmd
}

func newDecompressCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "decompress <record.json>",
		Short: "Unfold a record back into the original bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, _, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			rec, err := vault.ReadRecordFile(args[0])
			if err != nil {
				return err
			}
			data, err := eng.Decompress(context.Background(), rec)
			if err != nil {
				return err
			}

			if outPath == "" || outPath == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(outPath, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file ('-' for stdout)")
	return cmd
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the records in a vault directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir := cfg.Engine.Vault.Dir
			if vaultDir != "" {
				dir = vaultDir
			}
			paths, err := filepath.Glob(filepath.Join(dir, "*.record.json"))
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Println("no records found in", dir)
				return nil
			}

			type chainAgg struct {
				count    int
				original uint64
				stored   uint64
			}
			byChain := map[string]*chainAgg{}
			var totalOriginal, totalStored uint64
			for _, p := range paths {
				rec, err := vault.ReadRecordFile(p)
				if err != nil {
					fmt.Fprintf(os.Stderr, "skipping %s: %v\n", p, err)
					continue
				}
				agg := byChain[rec.Chain.Key()]
				if agg == nil {
					agg = &chainAgg{}
					byChain[rec.Chain.Key()] = agg
				}
				agg.count++
				agg.original += rec.OriginalLen
				agg.stored += rec.StoredLen
				totalOriginal += rec.OriginalLen
				totalStored += rec.StoredLen
			}

			keys := make([]string, 0, len(byChain))
			for k := range byChain {
				keys = append(keys, k)
			}
			sort.Slice(keys, func(i, j int) bool {
				if byChain[keys[i]].count != byChain[keys[j]].count {
					return byChain[keys[i]].count > byChain[keys[j]].count
				}
				return keys[i] < keys[j]
			})

			fmt.Printf("%-40s %8s %14s %14s\n", "CHAIN", "RECORDS", "ORIGINAL", "STORED")
			for _, k := range keys {
				agg := byChain[k]
				fmt.Printf("%-40s %8d %14d %14d\n", k, agg.count, agg.original, agg.stored)
			}
			fmt.Printf("\ntotal: %d records, %d -> %d bytes (%.1f%%)\n",
				len(paths), totalOriginal, totalStored,
				100*float64(totalStored)/float64(max(totalOriginal, 1)))
			return nil
		},
	}
	return cmd
}
