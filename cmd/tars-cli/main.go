package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/wangArtsoar/tars/capture"
	"github.com/wangArtsoar/tars/configuration"
	"github.com/wangArtsoar/tars/domain"
	"github.com/wangArtsoar/tars/domain/persistence"
	"github.com/wangArtsoar/tars/window"
)

var (
	envFile    = flag.String("env", ".env", "Path to the .env file")
	clipboard  = flag.String("context", "", "Clipboard context to send with questions")
	record     = flag.Bool("record", false, "Store each exchange in the conversation store")
	outputPath = flag.String("o", "screenshot.png", "Output file for the capture command")
)

const usage = `usage: tars-cli [flags] <command> [args]

commands:
  ask <question>     one question with the persona and -context
  screen <prompt>    ask about the primary display
  capture            write the primary display to -o as PNG
  chat               interactive session; prefix a line with analyze: or screenshot: to include the screen
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nShutting down...")
		cancel()
		os.Exit(0)
	}()

	cfg, err := configuration.Load(*envFile)
	if err != nil {
		fail(err)
	}
	log := cfg.NewLogger()
	entry := logrus.NewEntry(log)

	var store persistence.Store
	if *record {
		store, err = cfg.OpenStore(entry)
		if err != nil {
			fail(err)
		}
		defer store.Close()
	}

	client := domain.NewClient(domain.ClientConfig{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
	}, cfg.HTTPClient(), entry)
	screen := capture.New(nil, entry)
	var opts []domain.Option
	sealer, err := cfg.Sealer()
	if err != nil {
		fail(err)
	}
	if sealer != nil {
		opts = append(opts, domain.WithSealer(sealer))
	}
	svc := domain.NewService(client, screen, window.Headless(), store, entry, opts...)

	args := flag.Args()
	question := strings.Join(args[1:], " ")
	switch args[0] {
	case "ask":
		answer(ctx, svc, question)
	case "screen":
		prompt := question
		if *clipboard != "" {
			prompt = domain.ScreenPrompt(domain.NormalizeContext(*clipboard), question)
		}
		text, err := svc.AskAboutScreen(ctx, prompt)
		if err != nil {
			fail(err)
		}
		printAnswer(text)
		storeExchange(ctx, svc, question, text, persistence.ModeScreenshot)
	case "capture":
		data, err := screen.CaptureEncoded(capture.MimePNG)
		if err != nil {
			fail(err)
		}
		if err := os.WriteFile(*outputPath, data, 0644); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(data), *outputPath)
	case "chat":
		chat(ctx, svc)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

var (
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
)

func answer(ctx context.Context, svc *domain.Service, question string) {
	history := []*domain.Content{{Role: domain.RoleUser, Parts: []*domain.Part{domain.TextPart(question)}}}
	text, err := svc.Converse(ctx, domain.NormalizeContext(*clipboard), history)
	if err != nil {
		fail(err)
	}
	printAnswer(text)
	storeExchange(ctx, svc, question, text, persistence.ModeClipboard)
}

func chat(ctx context.Context, svc *domain.Service) {
	fmt.Println(boldGreen("tars chat"))
	fmt.Println("Type your message and press Enter. Type 'exit' or press Ctrl+C to quit.")
	fmt.Println()

	contextText := domain.NormalizeContext(*clipboard)
	var history []*domain.Content
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.ToLower(line) == "exit" {
			break
		}

		fmt.Print(boldCyan("tars: "))
		if prompt, ok := domain.SplitScreenPrefix(line); ok {
			text, err := svc.AskAboutScreen(ctx, domain.ScreenPrompt(contextText, prompt))
			if err != nil {
				fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
				continue
			}
			fmt.Println(text)
			fmt.Println()
			storeExchange(ctx, svc, prompt, text, persistence.ModeScreenshot)
			continue
		}

		turn := &domain.Content{Role: domain.RoleUser, Parts: []*domain.Part{domain.TextPart(line)}}
		text, err := svc.Converse(ctx, contextText, append(history, turn))
		if err != nil {
			fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
			continue
		}
		fmt.Println(text)
		fmt.Println()
		history = append(history, turn, &domain.Content{Role: domain.RoleAssistantAlias, Parts: []*domain.Part{domain.TextPart(text)}})
		storeExchange(ctx, svc, line, text, persistence.ModeClipboard)
	}
}

func storeExchange(ctx context.Context, svc *domain.Service, question, response, mode string) {
	if !*record {
		return
	}
	msg, err := svc.StoreConversation(ctx, domain.ConversationData{
		Question:  question,
		Response:  response,
		Context:   *clipboard,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Mode:      mode,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, red("Failed to store conversation: "+err.Error()))
		return
	}
	fmt.Println(msg)
}

func printAnswer(text string) {
	fmt.Println(boldCyan("tars: ") + text)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
	os.Exit(1)
}
