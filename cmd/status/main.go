package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"stream-uploader/internal"
	"stream-uploader/internal/model"
	"stream-uploader/internal/report"
	"stream-uploader/internal/s3"
	"stream-uploader/internal/stream"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	reportID := flag.String("report", "", "check every video of a saved run report")
	flag.Parse()

	if *reportID == "" && flag.NArg() == 0 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	cfg, err := internal.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	client, err := stream.NewClientBuilder().Token(cfg.Token).AccountID(cfg.AccountID).BaseURL(cfg.BaseURL).Build()
	if err != nil {
		fmt.Printf("Error creating client: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	uids := flag.Args()

	if *reportID != "" {
		rep, err := loadReport(ctx, cfg, *reportID)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("=== Run %s (%s, started %s) ===\n", rep.ID, rep.Policy, rep.StartedAt.Format("2006-01-02 15:04:05"))
		uids = append(uids, reportUIDs(rep)...)
	}

	if !printStatus(ctx, client, lo.Uniq(uids)) {
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: status [-report RUN_ID] [UID...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintf(w, "  -report RUN_ID   Check the videos recorded in <prefix><RUN_ID>.json, where the prefix is %s_REPORT_PREFIX (default %q, needs %s_S3_*)\n",
		internal.EnvPrefix, internal.DefaultReportPrefix, internal.EnvPrefix)
}

func loadReport(ctx context.Context, cfg internal.Config, id string) (*model.RunReport, error) {
	if !cfg.ReportsEnabled() {
		return nil, fmt.Errorf("reports need %s_S3_BUCKET", internal.EnvPrefix)
	}
	s3c, err := s3.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	rep, found, err := report.NewStore(s3c, cfg.ReportPrefix).Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("report %s not found", id)
	}
	return rep, nil
}

func reportUIDs(rep *model.RunReport) []string {
	return lo.FilterMap(rep.Items, func(r model.UploadRecord, _ int) (string, bool) {
		return r.UID, r.UID != ""
	})
}

// printStatus prints one line per video and reports whether every lookup succeeded.
func printStatus(ctx context.Context, client *stream.Client, uids []string) bool {
	allOK := true
	for _, uid := range uids {
		v, err := client.GetVideo(ctx, uid)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", uid, err)
			allOK = false
			continue
		}
		mark := lo.Ternary(v.ReadyToStream, "✅", "⏳")
		fmt.Printf("%s %s ready=%t preview=%s\n", mark, v.UID, v.ReadyToStream, v.Preview)
	}
	return allOK
}
