package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/blockedby/chatexport/internal/config"
	"github.com/blockedby/chatexport/internal/export"
	"github.com/blockedby/chatexport/internal/logger"
	"github.com/blockedby/chatexport/internal/telegram"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Printf("error initializing logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("\ninterrupted")
			os.Exit(130)
		}
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	fmt.Println("=== telegram chat exporter ===")

	templates := export.NewTemplateRegistry()
	if cfg.TemplatesFile != "" {
		if err := templates.LoadFile(cfg.TemplatesFile); err != nil {
			return err
		}
	}

	proto, err := telegram.NewProtoClient(cfg)
	if err != nil {
		return err
	}
	client := telegram.NewClient(proto, cfg.RateLimitRPS)
	defer client.Close()

	if self := client.Self(); self != nil {
		fmt.Printf("logged in as: %s %s\n", self.FirstName, self.LastName)
	}

	exporter := export.NewExporter(client, client, client.SelfID(), export.FetcherOptions{
		PageSize:         cfg.PageSize,
		SafetyMultiplier: cfg.SafetyMultiplier,
	})

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\nfetching your chats...")
		chats, err := client.ListDialogs(ctx, 100)
		if err != nil {
			return err
		}
		if len(chats) == 0 {
			fmt.Println("no chats found")
			return nil
		}

		printChats(chats)

		choice := prompt(reader, "\nchat number to export, 'a' for all, 'r' to refresh, 'q' to quit", "")
		switch strings.ToLower(choice) {
		case "q":
			return nil
		case "r":
			continue
		}

		opts, err := readOptions(reader, cfg, templates)
		if err != nil {
			fmt.Printf("invalid options: %v\n", err)
			continue
		}

		if strings.ToLower(choice) == "a" {
			batch := export.NewBatchExporter(exporter)
			result, err := batch.ExportAll(ctx, chats, *opts, cfg.NamingPattern)
			if result != nil {
				printBatchResult(result)
			}
			if err != nil {
				return err
			}
		} else {
			n, err := strconv.Atoi(choice)
			if err != nil || n < 1 || n > len(chats) {
				fmt.Println("please enter a valid chat number")
				continue
			}
			chat := chats[n-1]

			opts.OutputPath = prompt(reader, "output file", cfg.OutputFile)
			sum, err := exporter.Export(ctx, chat, *opts)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Printf("export failed: %v\n", err)
				continue
			}
			printSummary(sum)
		}

		again := prompt(reader, "\nexport another chat? (y/n)", "n")
		if strings.ToLower(again) != "y" {
			return nil
		}
	}
}

// printChats renders the dialog list as a plain table.
func printChats(chats []export.Chat) {
	fmt.Printf("\n%-4s %-8s %-40s %-6s\n", "ID", "Type", "Name", "Unread")
	fmt.Println(strings.Repeat("-", 62))
	for i, chat := range chats {
		name := chat.Title
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Printf("%-4d %-8s %-40s %-6d\n", i+1, chat.Kind, name, chat.Unread)
	}
}

// readOptions collects export options from the user. Configuration
// errors are reported before any network access happens.
func readOptions(reader *bufio.Reader, cfg *config.Config, templates *export.TemplateRegistry) (*export.Options, error) {
	opts := &export.Options{Filter: export.DefaultFilter()}

	limitStr := prompt(reader, "message limit (0 for all)", strconv.Itoa(cfg.MessageLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return nil, fmt.Errorf("limit must be a non-negative number")
	}
	opts.Limit = limit

	tplName := prompt(reader, fmt.Sprintf("template (%s)", strings.Join(templates.Names(), "/")), cfg.Template)
	tpl, err := templates.Get(tplName)
	if err != nil {
		return nil, err
	}
	opts.Template = tpl

	startStr := prompt(reader, "start date YYYY-MM-DD (empty for none)", "")
	endStr := prompt(reader, "end date YYYY-MM-DD (empty for none)", "")
	start, end, err := export.ParseDateRange(startStr, endStr)
	if err != nil {
		return nil, err
	}
	opts.Filter.Start = start
	opts.Filter.End = end

	opts.WriteStats = yes(prompt(reader, "write stats file? (y/n)", boolAnswer(cfg.WriteStats)))
	opts.DownloadMedia = yes(prompt(reader, "download media? (y/n)", boolAnswer(cfg.DownloadMedia)))

	if opts.DownloadMedia {
		opts.Filter.IncludePhotos = yes(prompt(reader, "  include photos? (y/n)", "y"))
		opts.Filter.IncludeVideos = yes(prompt(reader, "  include videos? (y/n)", "y"))
		opts.Filter.IncludeDocuments = yes(prompt(reader, "  include documents? (y/n)", "y"))
		opts.Filter.IncludeAudio = yes(prompt(reader, "  include audio? (y/n)", "y"))
		opts.Filter.IncludeVoice = yes(prompt(reader, "  include voice notes? (y/n)", "y"))
		opts.Filter.IncludeStickers = yes(prompt(reader, "  include stickers? (y/n)", "y"))
	}

	return opts, nil
}

func printSummary(sum *export.Summary) {
	fmt.Printf("\nexport complete: %s\n", sum.OutputPath)
	fmt.Printf("messages exported: %d of %d considered\n", sum.Exported, sum.Considered)
	if sum.StatsPath != "" {
		fmt.Printf("stats written to: %s\n", sum.StatsPath)
	}
	if sum.MediaDownloaded > 0 || sum.MediaFailed > 0 {
		fmt.Printf("media downloaded: %d (%d failed)\n", sum.MediaDownloaded, sum.MediaFailed)
	}
}

func printBatchResult(result *export.BatchResult) {
	fmt.Printf("\nbatch export finished: %d succeeded, %d failed\n", len(result.Succeeded), len(result.Failed))
	for _, s := range result.Succeeded {
		fmt.Printf("  ok   %-30s -> %s\n", s.Chat.Title, s.Path)
	}
	for _, f := range result.Failed {
		fmt.Printf("  fail %-30s: %v\n", f.Chat.Title, f.Err)
	}
}

func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

func yes(answer string) bool {
	return strings.ToLower(answer) == "y" || strings.ToLower(answer) == "yes"
}

func boolAnswer(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
