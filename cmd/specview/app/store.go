package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
	"github.com/roman-kulish/spectroscrub/internal/storage"
)

func newImportCmd(rt *runtime) *cobra.Command {
	var resultID string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Validate a payload file and store it",
		Long: `Read a spectrogram payload JSON file ({"data", "shape", "min", "max"}),
validate it and store it under the given result identifier, replacing any
previous payload.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rt, resultID, args[0])
		},
	}

	cmd.Flags().StringVarP(&resultID, "result", "r", "", "result identifier")
	_ = cmd.MarkFlagRequired("result")
	return cmd
}

func runImport(cmd *cobra.Command, rt *runtime, resultID, path string) (err error) {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening payload file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("reading payload file: %w", err)
	}

	p, err := spectrogram.DecodePayload(file)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	store := rt.openStore()
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing storage: %w", cerr)
		}
	}()

	if err = store.SavePayload(cmd.Context(), resultID, p); err != nil {
		return fmt.Errorf("storing payload: %w", err)
	}

	rt.logger.Info("payload imported",
		slog.String("result_id", resultID),
		slog.Int("freq_bins", p.FreqBins()),
		slog.Int("time_frames", p.TimeFrames()),
		slog.String("file_size", humanize.Bytes(uint64(stat.Size()))),
	)
	return nil
}

func newListCmd(rt *runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored payloads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			store := rt.openStore()
			defer func() {
				if cerr := store.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("closing storage: %w", cerr)
				}
			}()

			records, err := store.Records(cmd.Context(), storage.WithLimit(limit))
			if err != nil {
				return fmt.Errorf("listing payloads: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RESULT\tSHAPE\tSIZE\tCREATED")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%dx%d\t%s\t%s\n",
					r.ResultID, r.FreqBins, r.TimeFrames, humanize.Bytes(uint64(r.Size)), humanize.Time(r.CreatedAt))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of payloads to list, 0 for all")
	return cmd
}

func newDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete RESULT",
		Short: "Delete a stored payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			store := rt.openStore()
			defer func() {
				if cerr := store.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("closing storage: %w", cerr)
				}
			}()

			if err = store.DeletePayload(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, storage.ErrNoData) {
					return fmt.Errorf("no payload stored for result %q", args[0])
				}
				return fmt.Errorf("deleting payload: %w", err)
			}

			rt.logger.Info("payload deleted", slog.String("result_id", args[0]))
			return nil
		},
	}
}
