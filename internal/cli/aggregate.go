package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/status-digest/internal/capture"
	"github.com/rohmanhakim/status-digest/internal/config"
	"github.com/rohmanhakim/status-digest/internal/digest"
	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/normalizer"
	"github.com/rohmanhakim/status-digest/internal/record"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/internal/storage"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/rohmanhakim/status-digest/pkg/fileutil"
)

var (
	vendorsDir   string
	aggregateOut string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Fold vendor snapshots into the digest placeholder data.",
	Long: `aggregate reads the per-vendor snapshots and capture files of a run,
normalizes each vendor with capture transcripts taking precedence over
snapshots, and writes the placeholder map the send step renders.

Every configured vendor appears in the output, with an empty skeleton
when nothing was collected. The only non-zero exit is an unwritable
output file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg := InitConfig()
		dir := vendorsDir
		if dir == "" {
			dir = cfg.OutputDir()
		}
		out := aggregateOut
		if out == "" {
			out = cfg.DataPath()
		}
		return RunAggregate(cfg, dir, out)
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&vendorsDir, "vendors-dir", "", "directory holding per-vendor snapshots and captures")
	aggregateCmd.Flags().StringVar(&aggregateOut, "out", "", "path of the digest data JSON to write")
	rootCmd.AddCommand(aggregateCmd)
}

// RunAggregate builds the digest data file from whatever the vendor
// runs left behind in dir.
func RunAggregate(cfg config.Config, dir string, outPath string) error {
	recorder := newRecorder()
	rc := runctx.New(dir, cfg.CaptureMode(), &recorder)
	started := time.Now()

	records := make([]record.CanonicalVendorRecord, 0, len(vendors.All()))
	errCount := 0
	totalIncidents := 0
	for _, v := range vendors.All() {
		vrc := rc.SetVendor(v.Slug)
		in := normalizer.Input{
			CaptureText: capture.PreferredText(capture.ReadFile(dir, v.Slug)),
		}
		if snap, ok := storage.LoadSnapshot(dir, v.Slug); ok {
			in.Native = &snap
		}
		rec := normalizer.Normalize(vrc, v, in)
		if rec.CollectError != "" {
			errCount++
		}
		totalIncidents += rec.Counts.Active
		records = append(records, rec)
	}

	agg := digest.Build(records)
	data := agg.PlaceholderMap(rc.Now)

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding digest data: %w", err)
	}
	if werr := fileutil.WriteFileAtomic(outPath, encoded); werr != nil {
		return fmt.Errorf("writing digest data: %w", werr)
	}

	recorder.RecordArtifact(metadata.ArtifactDigestText, outPath, []metadata.Attribute{
		metadata.NewAttr(metadata.AttrWritePath, outPath),
	})
	recorder.RecordFinalRunStats(len(records), errCount, totalIncidents, time.Since(started))
	return nil
}
