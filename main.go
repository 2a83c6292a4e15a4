package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/api"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/broadcast"
	"github.com/example/taskboard/modules/task"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Taskboard - Collaborative Kanban Board ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	authModule := auth.NewModule()
	activityModule := activity.NewModule()
	taskModule := task.NewModule()
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule()

	// Inject broadcast hub into API module
	// (This is done manually because the hub is not exposed via ServiceContainer)
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - auth: identity (ServiceProviderModule)
	// - activity: append-only log store (ServiceProviderModule)
	// - task: board mutations (depends on auth + activity, emits board events)
	// - broadcast: event consumer fanning board events out over WebSocket
	// - api: driving adapter (Fiber HTTP/WebSocket server)
	app.Register(authModule)
	app.Register(activityModule)
	app.Register(taskModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Printf("  - NATS URL: %s", natsURL)
	log.Println("")
	log.Println("Event-Driven Board:")
	log.Println("  - TaskChanged events -> broadcast module -> WebSocket clients")
	log.Println("  - TaskDeleted events -> broadcast module -> WebSocket clients")
	log.Println("  - LogCreated events  -> broadcast module -> WebSocket clients")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                        - Health check")
	log.Println("  POST   /api/v1/auth/register          - Create an account")
	log.Println("  POST   /api/v1/auth/login             - Start a session")
	log.Println("  GET    /api/v1/tasks                  - List tasks")
	log.Println("  POST   /api/v1/tasks                  - Create a task")
	log.Println("  PUT    /api/v1/tasks/:id              - Update a task (optimistic lock)")
	log.Println("  POST   /api/v1/tasks/smart-assign/:id - Assign to least-loaded user")
	log.Println("  DELETE /api/v1/tasks/:id              - Delete a task")
	log.Println("  GET    /api/v1/logs                   - Recent activity (20 newest)")
	log.Println("  GET    /api/v1/users                  - Users for the assignee picker")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Connect with: ws://localhost:3000/ws?token=<session-token>")
	log.Println("  Pushes: task-updated, task-deleted, log-created")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
