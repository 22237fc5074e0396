package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v2"

	"aircast/dataset"
	"aircast/db"
	ahttp "aircast/http"
	"aircast/logging"
	"aircast/pipeline"
)

type Config struct {
	Dataset struct {
		Path string `yaml:"path"`
	} `yaml:"dataset"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Model struct {
		TestRatio float64 `yaml:"test_ratio"`
		Seed      int64   `yaml:"seed"`
		Trees     int     `yaml:"trees"`
		MaxDepth  int     `yaml:"max_depth"`
	} `yaml:"model"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(config.Log.Level, config.Log.File); err != nil {
		log.Fatalf("Failed to init logging: %v", err)
	}
	defer logging.Sync()

	// 2. Initialize database
	if err := db.InitDB(config.Database.Path); err != nil {
		logging.S().Fatalw("init database", "path", config.Database.Path, "err", err)
	}

	// 3. Train the pipeline from the dataset
	pipelineCfg := pipeline.Config{
		TestRatio: config.Model.TestRatio,
		Seed:      config.Model.Seed,
		Trees:     config.Model.Trees,
		MaxDepth:  config.Model.MaxDepth,
	}
	if err := trainAndServe(config.Dataset.Path, pipelineCfg); err != nil {
		logging.S().Fatalw("initial training failed", "err", err)
	}

	// 4. Start HTTP server
	serverCfg := ahttp.DefaultServerConfig()
	if config.Http.Port != 0 {
		serverCfg.Port = config.Http.Port
	}
	server := ahttp.NewServer(serverCfg)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logging.S().Fatalw("http server failed", "err", err)
		}
	}()

	// 5. Re-run the whole pipeline when the dataset file is rewritten
	watcher, err := watchDataset(config.Dataset.Path, pipelineCfg)
	if err != nil {
		logging.S().Warnw("dataset watcher disabled", "err", err)
	} else {
		defer watcher.Close()
	}

	// 6. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.S().Info("shutting down")

	if err := server.Stop(); err != nil {
		logging.S().Warnw("server forced to shutdown", "err", err)
	}
}

// trainAndServe runs the batch pipeline over the dataset file and swaps the
// fitted result into the HTTP layer.
func trainAndServe(path string, cfg pipeline.Config) error {
	store, err := dataset.LoadCSV(path)
	if err != nil {
		return err
	}
	p, err := pipeline.Run(store, cfg)
	if err != nil {
		return err
	}

	ahttp.SetPipeline(p)

	result := p.Evaluation()
	if err := db.SaveTrainingLog(result, len(p.Store().Readings), cfg.Trees, cfg.Seed); err != nil {
		logging.S().Warnw("save training log", "err", err)
	}
	return nil
}

func watchDataset(path string, cfg pipeline.Config) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory; editors replace files rather than writing in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				logging.S().Infow("dataset changed, retraining", "path", target)
				if err := trainAndServe(target, cfg); err != nil {
					logging.S().Errorw("retrain failed", "err", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.S().Warnw("dataset watcher error", "err", err)
			}
		}
	}()
	return watcher, nil
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
