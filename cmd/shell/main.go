// shell/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Abraxas-365/shohayok/pkg/config"
	"github.com/Abraxas-365/shohayok/pkg/identity"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/logx"
	"github.com/Abraxas-365/shohayok/pkg/shell"
	"github.com/joho/godotenv"
)

const (
	cmdMemory = "/memory"
	cmdQuit   = "/quit"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadShell()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	// el log va a stderr para no mezclarse con la conversación
	logx.SetOutput(os.Stderr)
	logx.SetLevel(logx.ParseLevel(os.Getenv("LOG_LEVEL")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := shell.NewClientFromConfig(cfg)
	renderer := shell.NewTerminalRenderer(os.Stdout)

	// 1. Sesión: el gateway asigna user_id (y token); sin gateway seguimos con uno local
	var userID kernel.UserID
	var token string
	info, err := client.OpenSession(ctx)
	if err != nil {
		logx.WithError(err).Warn("could not open a gateway session, using a local user id")
		renderer.Error(shell.ErrorText(err))
	} else {
		userID = info.UserID
		token = info.Token
	}

	session := shell.NewSession(userID, identity.ParseThreadPolicy(cfg.ThreadPolicy))
	session.Token = token

	sh := shell.New(client, session, renderer, shell.WithPollAfterTurn(!cfg.WatchMemory))
	renderer.Banner(session.UserID)

	// 2. Panel de memoria
	if cfg.WatchMemory {
		go func() {
			if err := sh.Watch(ctx); err != nil && ctx.Err() == nil {
				logx.WithError(err).Warn("memory stream ended")
			}
		}()
	} else {
		sh.RefreshMemory(ctx)
	}

	// 3. Bucle de entrada
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Printf("%s\n> ", shell.InputPrompt)

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok = <-lines:
			if !ok {
				return
			}
		}

		switch strings.TrimSpace(line) {
		case cmdQuit:
			return
		case cmdMemory:
			sh.RefreshMemory(ctx)
			continue
		}

		// Submit ya muestra el error en pantalla
		if err := sh.Submit(ctx, line); err != nil {
			logx.WithError(err).Debug("turn failed")
		}
	}
}
