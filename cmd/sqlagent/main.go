// Command sqlagent answers questions about a SQL database by driving an
// LLM decision loop over the tools exposed by a remote JSON-RPC server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/sqlagent/agent"
	"github.com/effective-security/sqlagent/catalog"
	"github.com/effective-security/sqlagent/chatmodel"
	"github.com/effective-security/sqlagent/config"
	"github.com/effective-security/sqlagent/invoker"
	"github.com/effective-security/sqlagent/jsonrpc"
	"github.com/effective-security/sqlagent/llm"
	"github.com/effective-security/sqlagent/llmfactory"
	"github.com/effective-security/sqlagent/store"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/sqlagent", "main")

var (
	flagCfg        = flag.String("cfg", "sqlagent.yaml", "Path to the configuration file")
	flagProvider   = flag.String("provider", "", "Provider name from the configuration; first one when empty")
	flagChat       = flag.String("chat", "", "Chat ID for conversation continuity; a new one when empty")
	flagQuestion   = flag.String("q", "", "Question to answer; interactive prompt when empty")
	flagIterations = flag.Int("iterations", 0, "Override the iteration ceiling")
	flagVerbose    = flag.Bool("verbose", false, "Print loop events to stdout")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	if *flagDebug {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		xlog.SetGlobalLogLevel(xlog.INFO)
	}

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "sqlagent: %s\n", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(*flagCfg)
	if err != nil {
		return err
	}

	rpc := jsonrpc.NewClient(cfg.ToolServer.Endpoint, cfg.ToolServer.RequestTimeout())

	// the server must be healthy before tools are discovered
	if _, err := rpc.Health(ctx); err != nil {
		return errors.WithMessagef(err, "tool server is not available: %s", rpc.Endpoint())
	}

	cat, err := catalog.Discover(ctx, rpc)
	if err != nil {
		return err
	}
	logger.KV(xlog.INFO,
		"status", "discovered",
		"endpoint", rpc.Endpoint(),
		"tools", cat.Summary(),
	)

	var msgStore store.MessageStore
	if cfg.Redis != nil {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		msgStore = store.NewRedisStore(client, cfg.Redis.Prefix)
	} else {
		msgStore = store.NewMemoryStore()
	}

	f := llmfactory.New(&cfg.LLM, msgStore)
	var backend llm.Backend
	if *flagProvider != "" {
		backend, err = f.BackendByName(*flagProvider)
	} else {
		backend, err = f.DefaultBackend()
	}
	if err != nil {
		return err
	}

	opts := []agent.Option{
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
	}
	if *flagIterations > 0 {
		opts = append(opts, agent.WithMaxIterations(*flagIterations))
	}
	if *flagVerbose {
		opts = append(opts, agent.WithCallback(agent.NewPrinterCallback(os.Stdout)))
	} else {
		opts = append(opts, agent.WithCallback(agent.NewPackageLoggerCallback(logger)))
	}

	a, err := agent.New(backend, cat, invoker.New(cat, rpc), opts...)
	if err != nil {
		return err
	}

	chatCtx := chatmodel.NewChatContext(*flagChat, nil)
	ctx = chatmodel.WithChatContext(ctx, chatCtx)
	logger.KV(xlog.INFO, "status", "ready", "chat", chatCtx.GetChatID(), "model", backend.Name())

	if *flagQuestion != "" {
		out := a.Run(ctx, *flagQuestion)
		fmt.Println(out.Response)
		return nil
	}

	return interact(ctx, a)
}

// interact runs the read-ask-print loop. A clarification ends the run and
// pushes the question back to the prompt; the next line starts a fresh run.
func interact(ctx context.Context, a *agent.Agent) error {
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		q := strings.TrimSpace(in.Text())
		if q == "" {
			continue
		}
		if q == "exit" || q == "quit" {
			return nil
		}

		out := a.Run(ctx, q)
		fmt.Println(out.Response)
	}
}
