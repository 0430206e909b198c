package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fleetwatch/internal/engine"
	"fleetwatch/internal/feed"
	"fleetwatch/internal/model"
)

// consoleNotifier renders the alarm's best-effort cues on the terminal.
type consoleNotifier struct{}

func (consoleNotifier) AlarmRaised(snap model.FleetSnapshot) {
	// BEL doubles as the haptic cue on a terminal.
	log.Printf("\a*** FLEET CRITICAL: %d critical, %d at risk, %d online ***",
		snap.CriticalUnits, snap.AtRiskUnits, snap.OnlineUnits)
}

func (consoleNotifier) AlarmDismissed() {
	log.Printf("alarm acknowledged")
}

func main() {
	var url string
	flag.StringVar(&url, "url", "ws://localhost:8090/ws", "hub push endpoint")
	flag.Parse()

	if err := run(url); err != nil {
		log.Fatal(err)
	}
}

func run(url string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := feed.Dial(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	eng := engine.New(consoleNotifier{})
	defer eng.Close()
	eng.Attach(client)

	var prev model.FleetStatus
	cancel := eng.SubscribeSnapshots(func(snap model.FleetSnapshot) {
		if snap.Overall == prev {
			return
		}
		prev = snap.Overall
		log.Printf("fleet %s: %d/%d online, avg temp %.1f, avg hum %.1f, low battery %s",
			snap.Overall, snap.OnlineUnits, snap.TotalUnits,
			snap.AvgTemperature, snap.AvgHumidity, strings.Join(snap.LowBattery, ","))
	})
	defer cancel()

	// Enter acknowledges an active alarm.
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			if eng.AlarmActive() {
				eng.Acknowledge()
			}
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down watch")
	return nil
}
