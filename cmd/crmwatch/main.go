package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go_crm/internal/event"
	"go_crm/internal/realtime"

	"github.com/sirupsen/logrus"
)

// crmwatch follows a project's realtime feed from the terminal: it prints
// every change event and demonstrates the debounced auto-refresh the UI uses.
func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/ws", "websocket endpoint")
		token   = flag.String("token", os.Getenv("CRM_TOKEN"), "JWT bearer token")
		project = flag.String("project", "", "project public ID to watch")
		table   = flag.String("table", "", "restrict auto-refresh to one table (empty = all)")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logrus.NewEntry(logger)

	if *token == "" {
		log.Fatal("a token is required (-token or CRM_TOKEN)")
	}
	if *project == "" {
		log.Fatal("a project ID is required (-project)")
	}

	client := realtime.New(realtime.Config{
		URL:    *url,
		Token:  *token,
		Logger: log,
		Dialer: realtime.DialWebsocket,
	})

	statusSub := client.OnConnectionChange(func(s realtime.ConnectionStatus) {
		if s.Connected {
			log.Info("connected")
		} else {
			log.WithField("attempts", s.ReconnectAttempts).Warn("disconnected")
		}
	})
	defer statusSub.Cancel()

	changeSub := client.OnDatabaseChange(func(ev event.DatabaseEvent) {
		log.WithFields(logrus.Fields{
			"id":    ev.EventID,
			"table": ev.TableName,
			"type":  ev.Type,
		}).Info("change")
	})
	defer changeSub.Cancel()

	projectSub := client.OnProjectEvent(func(ev event.ProjectEvent) {
		log.WithField("kind", ev.Kind).Info("project event")
	})
	defer projectSub.Cancel()

	client.Init()
	client.JoinProject(*project)

	refresher := realtime.NewAutoRefresher(client, *project, *table, func() {
		log.WithField("table", *table).Info("refresh")
	})
	defer refresher.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	client.Disconnect()
	log.Info("bye")
}
