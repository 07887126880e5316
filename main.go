package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"
	"github.com/wangArtsoar/tars/capture"
	"github.com/wangArtsoar/tars/configuration"
	"github.com/wangArtsoar/tars/domain"
	"github.com/wangArtsoar/tars/domain/persistence"
	"github.com/wangArtsoar/tars/router"
	"github.com/wangArtsoar/tars/window"
)

const projectDescription = `tars : screen and clipboard assistant
Model : Google Gemini

Ask: open the window and type a question.
Ask about screen: prefix a question with "analyze:" or "screenshot:".`

type app struct {
	log     *logrus.Logger
	store   persistence.Store
	window  *window.Browser
	service *domain.Service
	server  *http.Server
}

var tars *app

func setup() (*app, error) {
	cfg, err := configuration.Load(".env")
	if err != nil {
		return nil, err
	}
	log := cfg.NewLogger()
	entry := logrus.NewEntry(log)

	if err := cfg.StartProxy(entry.WithField("component", "proxy")); err != nil {
		return nil, err
	}

	store, err := cfg.OpenStore(entry)
	if err != nil {
		return nil, err
	}

	var opts []domain.Option
	sealer, err := cfg.Sealer()
	if err != nil {
		store.Close()
		return nil, err
	}
	if sealer != nil {
		opts = append(opts, domain.WithSealer(sealer))
	}

	client := domain.NewClient(domain.ClientConfig{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
	}, cfg.HTTPClient(), entry)

	port := configuration.FreePort(cfg.Port)
	win := window.NewBrowser(fmt.Sprintf("http://localhost:%s/index", port), nil, entry)
	svc := domain.NewService(client, capture.New(nil, entry), win, store, entry, opts...)

	return &app{
		log:     log,
		store:   store,
		window:  win,
		service: svc,
		server: &http.Server{
			Addr:    ":" + port,
			Handler: router.New(svc, win, entry).Register(),
		},
	}, nil
}

func main() {
	var err error
	tars, err = setup()
	if err != nil {
		logrus.WithError(err).Fatal("failed to start")
	}
	systray.Run(onReady, onExit)
}

func onReady() {
	systray.SetIcon(window.TrayIcon())
	systray.SetTitle("tars")
	systray.SetTooltip("tars assistant")

	mOpen := systray.AddMenuItem("Open", "Open the assistant window")
	mScreen := systray.AddMenuItem("Ask about screen", "Capture the screen and open the window")
	mDescription := systray.AddMenuItem("About", "Show project description")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Close the assistant")

	go func() {
		if err := tars.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			tars.log.WithError(err).Fatal("http server stopped")
		}
	}()

	time.Sleep(500 * time.Millisecond)
	tars.log.WithField("addr", tars.server.Addr).Info("server is running")

	go func() {
		for {
			select {
			case <-mOpen.ClickedCh:
				if err := tars.window.Show(); err != nil {
					tars.log.WithError(err).Warn("failed to open window")
				}
			case <-mScreen.ClickedCh:
				if _, err := tars.service.CaptureAndReveal(context.Background()); err != nil {
					tars.log.WithError(err).Warn("capture and reveal failed")
				}
			case <-mDescription.ClickedCh:
				showProjectDescription()
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func onExit() {
	if tars != nil {
		_ = tars.server.Close()
		if err := tars.store.Close(); err != nil {
			tars.log.WithError(err).Warn("failed to close store")
		}
	}
	os.Exit(0)
}
