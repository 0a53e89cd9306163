package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oloid-qa/e2e/internal/artifacts"
	"github.com/oloid-qa/e2e/internal/config"
	"github.com/oloid-qa/e2e/internal/notify"
	"github.com/oloid-qa/e2e/internal/obs"
	"github.com/oloid-qa/e2e/internal/report"
	"github.com/oloid-qa/e2e/internal/s3client"
)

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Merge recorded results, write list/JSON/HTML reports, upload artifacts and notify",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := publish(cmd.Context(), a.cfg, cmd.OutOrStdout())
			return err
		},
	}
}

// publish merges the run's results and writes the reports. When a bucket is
// configured the artifacts and the HTML report are uploaded first so the
// report links to them. Notifications go out last, then the local HTML report
// is opened when OPEN_REPORT is set.
func publish(ctx context.Context, cfg *config.Config, out io.Writer) (*report.Summary, error) {
	log := obs.Pkg("cmd.e2e")
	sum, err := report.Merge(cfg.ReportDir, cfg.Report, cfg.RunID)
	if err != nil {
		return nil, err
	}

	var uploader *artifacts.Uploader
	if cfg.ArtifactsEnabled() {
		store, err := s3client.New(ctx, s3client.Config{
			Endpoint:        cfg.AWSEndpointS3,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			BucketName:      cfg.ArtifactBucket,
			PublicURL:       cfg.AWSPublicURL,
			UsePathStyle:    cfg.AWSEndpointS3 != "",
		})
		if err != nil {
			return nil, fmt.Errorf("artifact bucket: %w", err)
		}
		uploader = artifacts.NewUploader(store, s3client.Key(cfg.ArtifactPrefix, sum.RunID), cfg.Root, log)
		published, err := uploader.Upload(ctx, sum.Artifacts())
		if err != nil {
			log.Warn("some artifacts were not uploaded", "error", err)
		}
		sum.SetArtifacts(published)
	}

	paths, err := report.WriteAll(cfg.ReportDir, sum)
	if err != nil {
		return nil, err
	}
	if err := report.WriteList(out, sum); err != nil {
		return nil, err
	}
	fmt.Fprintln(out, report.CountsLine(sum))

	reportURL := ""
	if uploader != nil {
		var reports []artifacts.Artifact
		for _, p := range paths {
			a, err := artifacts.FromFile(artifacts.Report, p)
			if err != nil {
				return nil, err
			}
			reports = append(reports, a)
		}
		published, err := uploader.Upload(ctx, reports)
		if err != nil {
			log.Warn("report upload failed", "error", err)
		}
		for _, a := range published {
			if filepath.Base(a.Path) == report.HTMLFile && a.URL != "" {
				reportURL = a.URL
			}
		}
	}
	htmlPath := filepath.Join(cfg.ReportDir, report.HTMLDir, report.HTMLFile)
	if reportURL != "" {
		fmt.Fprintf(out, "report: %s\n", reportURL)
	} else {
		fmt.Fprintf(out, "report: %s\n", htmlPath)
	}

	d := notify.NewDispatcher(notify.FromConfig(cfg), cfg.NotifyOnSuccess)
	if err := d.Dispatch(ctx, notify.Message{Summary: sum, ReportURL: reportURL}); err != nil {
		log.Warn("notification failed", "error", err)
	}
	if cfg.OpenReport {
		if err := openReport(htmlPath); err != nil {
			log.Warn("could not open report", "path", htmlPath, "error", err)
		}
	}
	return sum, nil
}
