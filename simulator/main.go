package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/core/model"
	infralogger "github.com/kilianp07/liftsim/infra/logger"
	"github.com/kilianp07/liftsim/infra/mqtt"
)

// Presser sends one button press.
type Presser interface {
	Press(model.Request) error
}

func main() {
	cfg, profileFile := parseFlags()
	if profileFile != "" {
		data, err := os.ReadFile(profileFile)
		if err != nil {
			log.Fatalf("profile file: %v", err)
		}
		if cfg.Profile, err = LoadTrafficProfile(data); err != nil {
			log.Fatalf("profile file: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	var lg logger.Logger = logger.NopLogger{}
	if cfg.Verbose {
		lg = infralogger.New("simulator")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	mqttCfg := mqtt.Config{Enabled: true, Broker: cfg.Broker, TopicPrefix: cfg.TopicPrefix}
	mqttCfg.SetDefaults()
	client, err := mqtt.NewPahoClient(mqttCfg)
	if err != nil {
		log.Fatalf("mqtt client: %v", err)
	}
	defer client.Disconnect()

	n := run(ctx, NewGenerator(cfg), mqtt.NewButtonPublisher(client, mqttCfg.TopicPrefix), time.Now, lg)
	log.Printf("published %d presses", n)
}

func parseFlags() (Config, string) {
	var cfg Config
	var cars, profile string
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.StringVar(&cfg.TopicPrefix, "topic-prefix", "liftsim", "MQTT topic prefix")
	flag.IntVar(&cfg.Floors, "floors", 8, "number of floors")
	flag.StringVar(&cars, "cars", "elevator1,elevator2", "comma separated car ids")
	flag.Float64Var(&cfg.Rate, "rate", 6, "presses per minute at full intensity")
	flag.Float64Var(&cfg.PanelPct, "panel-pct", 0.3, "share of panel presses")
	flag.StringVar(&profile, "profile-file", "", "hourly traffic weights JSON")
	flag.DurationVar(&cfg.Duration, "duration", 0, "stop after this duration (0 runs until interrupted)")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "random seed")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")
	flag.Parse()
	for _, c := range strings.Split(cars, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cfg.Cars = append(cfg.Cars, c)
		}
	}
	cfg.Profile = FlatProfile()
	return cfg, profile
}

// run presses buttons drawn from gen until ctx is done and returns the number
// of presses sent.
func run(ctx context.Context, gen *Generator, p Presser, now func() time.Time, lg logger.Logger) int {
	sent := 0
	timer := time.NewTimer(gen.Gap(now()))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return sent
		case <-timer.C:
			req := gen.Next()
			if err := p.Press(req); err != nil {
				lg.Errorf("press %s: %v", req, err)
			} else {
				sent++
				lg.Debugf("pressed %s", req)
			}
			timer.Reset(gen.Gap(now()))
		}
	}
}
