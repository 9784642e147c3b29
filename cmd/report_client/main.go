package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/pkg/events"
	pktNats "ai-devguide-be/pkg/nats"
	"ai-devguide-be/pkg/reportbuilder"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	var (
		server  string
		natsURL string
		prompt  string
		project string
	)

	root := &cobra.Command{
		Use:   "report_client [files...]",
		Short: "Upload documents and generate a 4-box status report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, server, natsURL, prompt, project, args)
		},
	}
	root.Flags().StringVar(&server, "server", getenv("REPORT_SERVER", "http://localhost:3000"), "API base URL")
	root.Flags().StringVar(&natsURL, "nats", "", "NATS URL; when set, report events are printed as they arrive")
	root.Flags().StringVar(&prompt, "prompt", "generate a 4-box report", "request text")
	root.Flags().StringVar(&project, "project", "", "optional project context")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, server, natsURL, prompt, project string, files []string) error {
	client := reportbuilder.NewHTTPClient(server)

	if natsURL != "" {
		sub, err := pktNats.NewSubscriber(natsURL)
		if err != nil {
			color.Yellow("NATS unavailable, continuing without events: %v", err)
		} else {
			defer sub.Close()
			err = sub.Subscribe(ctx, "", func(ctx context.Context, e events.Event) error {
				color.Magenta("[event] %s %v", e.EventType(), e.Payload()["reportId"])
				return nil
			}, events.ReportCompleted, events.ReportFailed)
			if err != nil {
				color.Yellow("NATS subscribe failed: %v", err)
			}
		}
	}

	var mu sync.Mutex
	printed := map[string]bool{}
	builder := reportbuilder.NewBuilder(client, reportbuilder.Options{
		ProjectContext: project,
		OnChange: func(b *reportbuilder.Builder) {
			mu.Lock()
			defer mu.Unlock()
			for _, m := range b.Messages() {
				if !printed[m.Id] {
					printed[m.Id] = true
					printMessage(m)
				}
			}
		},
	}, nil)

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := client.UploadDocument(ctx, filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		color.Cyan("Uploaded %s (%s, %d bytes)", doc.Name, doc.Type, doc.Size)
		builder.AddDocument(*doc)
	}

	if err := builder.RequestReport(ctx, prompt); err != nil {
		return err
	}

	state := builder.Wait(ctx)
	if state == reportbuilder.StatePolling {
		builder.Stop()
	}

	report := builder.Report()
	if report.Metadata.FullReport != "" {
		fmt.Println()
		fmt.Println(report.Metadata.FullReport)
	}
	if state != reportbuilder.StateCompleted {
		return fmt.Errorf("report ended in state %s", builder.State())
	}
	return nil
}

func printMessage(m entity.ChatMessage) {
	switch {
	case m.Role == entity.RoleUser:
		color.White("> %s", m.Content)
	case m.IsStreaming:
		color.HiBlack("… %s", m.Content)
	case m.IsError():
		color.Red("✗ %s", m.Content)
	case m.Metadata != nil && m.Metadata.Type == entity.MessageTypeWarning:
		color.Yellow("! %s", m.Content)
	default:
		color.Green("✓ %s", m.Content)
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
