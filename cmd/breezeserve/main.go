// Command breezeserve wires the HTTP server, the file watcher and the
// built-in middleware set together: it serves a directory of static
// site output, live-reloading connected browsers whenever the watcher
// reports a change under that directory.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rowanco/breeze"
	"github.com/rowanco/breeze/internal/blog"
	"github.com/rowanco/breeze/middleware"
	"github.com/rowanco/breeze/watch"
)

func main() {
	var (
		addr = flag.String("addr", "localhost:8080", "address to listen on")
		root = flag.String("root", ".", "directory of static site output to serve")
	)
	flag.Parse()

	log := blog.New()

	if err := run(*addr, *root, log); err != nil {
		log.Error("breezeserve exited", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run(addr, root string, log *blog.Logger) error {
	reload := make(chan string, 64)

	router := breeze.NewRouter("/")
	router.UseFunc(middleware.Recover(middleware.RecoverOptions{Log: log}))
	router.UseFunc(middleware.AccessLog(log))
	router.UseFunc(middleware.WebSocketHandshake())
	router.UseFunc(middleware.NormalizePath())
	router.UseFunc(middleware.Injector())

	router.Use(middleware.StaticFiles(middleware.StaticFilesOptions{
		Root: root,
		Log:  log,
	}))

	stack, err := router.Build(breeze.RootScope)
	if err != nil {
		return fmt.Errorf("breezeserve: build router: %w", err)
	}

	opts := breeze.DefaultServerOptions()
	opts.Address = addr

	server, err := breeze.NewServer(opts, stack.Handle, reload, log)
	if err != nil {
		return fmt.Errorf("breezeserve: new server: %w", err)
	}
	defer server.Close()

	agentOpts := watch.DefaultAgentOptions()
	waker := server.Waker()
	agent, err := watch.NewAgent(agentOpts, func(res watch.Result) error {
		if res.Err != nil {
			log.Warn("watch error", map[string]interface{}{"error": res.Err.Error()})
			return nil
		}

		switch res.Event.Op {
		case watch.OpCreate, watch.OpModify, watch.OpRename, watch.OpRemove:
			select {
			case reload <- res.Event.Path:
			default:
			}
			if err := waker.Wake(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("breezeserve: new watch agent: %w", err)
	}
	defer agent.Close()

	if err := agent.Watch(root); err != nil {
		return fmt.Errorf("breezeserve: watch %s: %w", root, err)
	}

	log.Info("serving", map[string]interface{}{
		"address": addr,
		"root":    root,
		"started": time.Now().Format(time.RFC3339),
	})

	return server.Serve()
}
