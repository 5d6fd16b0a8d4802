package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"staticd"
)

func main() {
	cfg := staticd.DefaultConfig()
	if err := cfg.LoadEnv(os.LookupEnv); err != nil {
		log.Fatal(err)
	}
	overflow := string(cfg.Overflow)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.Root, "root", cfg.Root, "document root")
	flag.StringVar(&cfg.IndexFile, "index", cfg.IndexFile, "index file for directory requests")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of workers")
	flag.IntVar(&cfg.QueueSize, "queue", cfg.QueueSize, "pending connection queue size")
	flag.StringVar(&overflow, "overflow", overflow, "policy when the queue is full: block or reject")
	flag.Parse()
	cfg.Overflow = staticd.OverflowPolicy(overflow)

	svc, err := staticd.NewServer(cfg)
	if err != nil {
		log.Fatal(err)
	}

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, shutdownSignals...)
	go func() {
		sig := <-sigC
		log.Printf("staticd: received %v, shutting down", sig)
		svc.Close()
	}()

	l, err := staticd.Listen(cfg.Addr)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("staticd ready on", l.Addr())
	fmt.Printf("Workers: %d\n", cfg.Workers)

	if err = svc.Serve(l); err != nil && !errors.Is(err, staticd.ErrServerClosed) {
		log.Fatal(err)
	}
	// 处理完已排队的连接再退出
	svc.Wait()
}
