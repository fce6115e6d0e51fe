package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/app"
	"github.com/ayusman/repcount/internal/capture"
	"github.com/ayusman/repcount/internal/config"
	"github.com/ayusman/repcount/internal/detector"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/logging"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/plugin"
	"github.com/ayusman/repcount/internal/server"
	"github.com/ayusman/repcount/internal/session"
	"github.com/ayusman/repcount/internal/store"
	"github.com/ayusman/repcount/internal/tray"
)

const usage = `usage: repcount [-env dev|prod] [-config path] <command> [args]

commands:
  serve [-headless]                     run the dashboard, live counter and tray (default)
  analyze [-exercise name] [-save] FILE count repetitions in a video file
  exercises                             list supported exercises
`

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %s\n", err)
		os.Exit(2)
	}

	logs := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})
	defer logs.Close()

	log.Debugf("running in [%s] environment", *env)

	args := flag.Args()
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = serve(cfg, args)
	case "analyze":
		err = analyze(cfg, args)
	case "exercises":
		err = listExercises()
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Errorf("%s: %s", cmd, err)
		logs.Close()
		os.Exit(1)
	}
}

func serve(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	headless := fs.Bool("headless", false, "run without the tray icon")
	fs.Parse(args)

	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager(metrics.Namespace, "app", reg)

	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.WithError(err).Warn("plugin discovery failed")
	}
	log.WithField("plugins", len(plugins.List())).Info("plugins discovered")

	hub := server.NewHub(metricsManager)
	srv := server.New(server.Config{
		StaticDir: findWebDir(cfg.StaticDir),
		Store:     st,
		Tuning:    cfg.Tuning,
		Hub:       hub,
		Metrics:   metricsManager,
		Registry:  reg,
	})

	kind, _ := exercise.ParseKind(cfg.DefaultExercise)
	live := app.New(app.Config{
		Store:          st,
		Hub:            hub,
		Dispatcher:     plugin.NewDispatcher(plugins, plugin.NewExecutor(cfg.HookTimeout.Duration), metricsManager),
		Metrics:        metricsManager,
		Tuning:         cfg.Tuning,
		Exercise:       kind,
		CameraID:       cfg.CameraID,
		DetectorConfig: detectorConfig(cfg),
	})

	go func() {
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			log.Fatalf("http server: %s", err)
		}
	}()

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	if *headless {
		if err := live.Start(); err != nil {
			log.WithError(err).Warn("live workout not started")
		}
		receivedSig := <-chOsInterrupt
		log.Warnf("signal [%s] received, shutting down ...", receivedSig)
	} else {
		t := tray.New(live.Exercise())
		t.OnStart(live.Start)
		t.OnStop(live.Stop)
		t.OnExercise(live.SetExercise)
		t.OnSettings(func() { openBrowser("http://" + cfg.Addr) })
		live.OnUpdate(func(s app.Status) { t.SetStatus(s.Running, s.Exercise, s.Count) })

		go func() {
			receivedSig := <-chOsInterrupt
			log.Warnf("signal [%s] received, shutting down ...", receivedSig)
			t.Quit()
		}()
		t.Run()
	}

	if err := live.Close(); err != nil {
		log.WithError(err).Warn("close pose detector")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func analyze(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	name := fs.String("exercise", cfg.DefaultExercise, "exercise name or alias")
	save := fs.Bool("save", false, "store the result in the database")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("expected exactly one video file")
	}
	kind, err := exercise.ParseKind(*name)
	if err != nil {
		return err
	}

	det, err := detector.NewMediaPipeDetector(detectorConfig(cfg))
	if err != nil {
		return err
	}
	defer det.Close()

	video := capture.NewVideoFile(fs.Arg(0))
	if err := video.Open(); err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer video.Close()

	sess, err := session.New(session.Config{Kind: kind, Tuning: cfg.Tuning, Source: session.SourceVideo})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := capture.NewPoseSource(video, det, nil)
	if err := sess.Run(ctx, src); err != nil {
		return err
	}
	res := sess.Finish()
	log.WithField("skipped_frames", src.Skipped()).Debug("video analyzed")

	if *save {
		st, err := openStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Sessions().Create(store.FromResult(res), res.Reps); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func listExercises() error {
	for _, kind := range exercise.Kinds() {
		fmt.Printf("%-14s %v\n", kind, exercise.Aliases(kind))
	}
	return nil
}

func detectorConfig(cfg *config.Config) detector.Config {
	dc := detector.DefaultConfig()
	dc.ModelComplexity = cfg.ModelComplexity
	dc.ScriptPath = cfg.PoseScript
	return dc
}

func openStore(dbPath string) (*store.Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return store.New(dbPath)
}

// findWebDir returns dir if it exists, otherwise the first of "web",
// "../web" and ~/.repcount/web that does.
func findWebDir(dir string) string {
	candidates := []string{dir, "web", "../web"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".repcount", "web"))
	}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.WithError(err).Warn("failed to open browser")
		return
	}
	go cmd.Wait()
}
