package taskqueue

import (
	"log"

	"github.com/hibiken/asynq"
)

// Dispatcher is an asynq-backed automation.Dispatcher. One instance owns
// its client and worker server; nothing is package-global.
type Dispatcher struct {
	client   *asynq.Client
	srv      *asynq.Server
	executor Executor
}

// NewDispatcher creates a dispatcher backed by the given Redis address
func NewDispatcher(redisAddr string, executor Executor) *Dispatcher {
	return &Dispatcher{
		client:   asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
		srv:      asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{Concurrency: 10}),
		executor: executor,
	}
}

// Run starts the workers and blocks until Stop is called
func (d *Dispatcher) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExecuteRule, d.handleExecuteRule)
	log.Printf("TASKQUEUE: Workers started, waiting for tasks...")
	return d.srv.Run(mux)
}

// Stop shuts down workers and closes the client
func (d *Dispatcher) Stop() {
	log.Printf("TASKQUEUE: Stopping workers...")
	d.srv.Stop()
	if err := d.client.Close(); err != nil {
		log.Printf("TASKQUEUE: Error closing client: %v", err)
	}
	log.Printf("TASKQUEUE: Workers stopped")
}
