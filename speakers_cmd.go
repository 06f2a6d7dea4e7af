package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tonekit/revoice/internal/device"
	"github.com/tonekit/revoice/internal/model"
	"github.com/tonekit/revoice/internal/speaker"
)

var speakersLanguage string

var speakersCmd = &cobra.Command{
	Use:   "speakers [filter]",
	Short: "List the speaker keys the checkpoints provide",
	Long: paragraph(
		"\nList the base speaker embeddings found under the checkpoint root. A filter argument fuzzy-matches the keys; with --language the speech model's own voice table is queried too.",
	),
	Example: paragraph("revoice speakers\nrevoice speakers en\nrevoice speakers --language EN"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := speaker.NewCatalog(checkpoints)
		entries, err := catalog.List()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			entries = filterEntries(entries, args[0])
		}
		if len(entries) == 0 {
			fmt.Println(subtle("No speakers found in " + catalog.Dir()))
		}
		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.Key, subtle(humanize.Bytes(uint64(e.Size))))
		}

		if speakersLanguage != "" {
			return printVoiceTable(cmd, speakersLanguage)
		}
		return nil
	},
}

func filterEntries(entries []speaker.Entry, pattern string) []speaker.Entry {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}

	matches := fuzzy.Find(pattern, keys)
	out := make([]speaker.Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}

func printVoiceTable(cmd *cobra.Command, language string) error {
	dev, err := device.Parse(viper.GetString("device"))
	if err != nil {
		return err
	}

	tts, err := model.NewMeloModel(language, device.Resolve(dev), model.RunnerConfig{
		Offline: viper.GetBool("offline"),
	})
	if err != nil {
		printGuidance(err)
		return err
	}

	voices, err := tts.Voices(cmd.Context())
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(voices))
	for k := range voices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println()
	fmt.Println(keyword(language) + " voices:")
	for _, k := range keys {
		fmt.Printf("%s  %s\n", k, subtle(fmt.Sprintf("id %d", voices[k])))
	}
	return nil
}

func init() {
	speakersCmd.Flags().StringVarP(&speakersLanguage, "language", "l", "", "also query the speech model's voice table for this language")
}
