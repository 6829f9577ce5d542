package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatp-client/internal/botcmd"
	"github.com/vovakirdan/chatp-client/internal/client"
	"github.com/vovakirdan/chatp-client/internal/config"
	"github.com/vovakirdan/chatp-client/internal/core"
	applog "github.com/vovakirdan/chatp-client/internal/log"
	"github.com/vovakirdan/chatp-client/internal/render"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
		username   string
		password   string
		enableBot  bool
	)

	cmd := &cobra.Command{
		Use:           "chatp",
		Short:         "Terminal client for the chatp chatroom protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLog := applog.New("info")
			cfg, path, err := config.Load(bootLog, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)

			logger := applog.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("endpoint", cfg.Endpoint).Msg("starting chatp client")

			return run(cfg, logger, username, password, enableBot)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config file")
	flags.StringVar(&overrides.Endpoint, "endpoint", "", "websocket endpoint URL")
	flags.DurationVar(&overrides.ReconnectInterval, "reconnect-interval", 0, "delay before reconnect attempts (0 = config default)")
	flags.StringVar(&overrides.ProtocolVariant, "variant", "", "protocol variant: classic or alt")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVarP(&username, "user", "u", "", "username")
	flags.StringVarP(&password, "pass", "p", "", "password")
	flags.BoolVar(&enableBot, "bot", false, "answer .help/.ping/.time commands in rooms")

	return cmd
}

func run(cfg config.Config, logger *zerolog.Logger, username, password string, enableBot bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdin := bufio.NewScanner(os.Stdin)
	if username == "" {
		username = promptLine(stdin, "username: ")
	}
	if password == "" {
		password = promptLine(stdin, "password: ")
	}
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	var sink core.Sink = render.NewWriter(os.Stdout)
	relay := &lateSender{}
	if enableBot {
		sink = botcmd.Wrap(sink, relay, botcmd.DefaultPrefix, logger)
	}

	c, err := client.New(cfg, sink, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	relay.set(c)

	c.Connect(ctx, username, password)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for stdin.Scan() {
			lines <- stdin.Text()
		}
	}()

	currentRoom := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, room := handleLine(ctx, c, line, currentRoom)
			if quit {
				return nil
			}
			currentRoom = room
		}
	}
}

// handleLine executes one stdin line: a /command or a message to the
// current room. Returns the (possibly changed) current room.
func handleLine(ctx context.Context, c *client.Client, line, currentRoom string) (quit bool, room string) {
	room = currentRoom
	line = strings.TrimSpace(line)
	if line == "" {
		return false, room
	}

	if !strings.HasPrefix(line, "/") {
		if room == "" {
			fmt.Println("* join a room first: /join <name>")
			return false, room
		}
		reportErr(c.SendText(room, line))
		return false, room
	}

	name, rest, _ := strings.Cut(line[1:], " ")
	args := strings.Fields(rest)
	switch name {
	case "quit":
		return true, room
	case "rooms":
		go c.FetchRooms(ctx)
	case "join":
		if len(args) < 1 {
			fmt.Println("* usage: /join <name> [password]")
			return false, room
		}
		password := ""
		if len(args) > 1 {
			password = args[1]
		}
		if err := c.JoinRoom(args[0], password); err != nil {
			reportErr(err)
			return false, room
		}
		room = args[0]
	case "leave":
		target := room
		if len(args) > 0 {
			target = args[0]
		}
		if target == "" {
			fmt.Println("* usage: /leave <name>")
			return false, room
		}
		reportErr(c.LeaveRoom(target))
		if target == room {
			room = ""
		}
	case "msg":
		if len(args) < 2 {
			fmt.Println("* usage: /msg <room> <text>")
			return false, room
		}
		reportErr(c.SendText(args[0], strings.Join(args[1:], " ")))
	case "image", "audio", "gift":
		if len(args) < 2 {
			fmt.Printf("* usage: /%s <room> <url> [length]\n", name)
			return false, room
		}
		length := 0
		if len(args) > 2 {
			length, _ = strconv.Atoi(args[2])
		}
		reportErr(c.SendMedia(args[0], name, args[1], length))
	case "subject":
		if len(args) < 2 {
			fmt.Println("* usage: /subject <room> <text>")
			return false, room
		}
		reportErr(c.SetSubject(args[0], strings.Join(args[1:], " ")))
	case "role":
		if len(args) < 3 {
			fmt.Println("* usage: /role <room> <user> <role>")
			return false, room
		}
		reportErr(c.ChangeRole(args[0], args[1], args[2]))
	case "kick":
		if len(args) < 2 {
			fmt.Println("* usage: /kick <room> <user>")
			return false, room
		}
		reportErr(c.Kick(args[0], args[1]))
	case "create":
		if len(args) < 1 {
			fmt.Println("* usage: /create <name>")
			return false, room
		}
		reportErr(c.CreateRoom(args[0]))
	case "captcha":
		if len(args) < 2 {
			fmt.Println("* usage: /captcha <room> <answer>")
			return false, room
		}
		reportErr(c.SolveCaptcha(args[0], args[1]))
	case "users":
		target := room
		if len(args) > 0 {
			target = args[0]
		}
		printUsers(c, target)
	case "friends":
		printRoster(c)
	default:
		fmt.Println("* commands: /join /leave /msg /image /audio /gift /subject /role /kick /create /captcha /rooms /users /friends /quit")
	}
	return false, room
}

func printUsers(c *client.Client, room string) {
	if room == "" {
		fmt.Println("* usage: /users <room>")
		return
	}
	view, ok := c.Room(room)
	if !ok {
		fmt.Printf("* not in room %s\n", room)
		return
	}
	fmt.Printf("* %s: %d users\n", room, len(view.Users))
	for _, u := range view.Users {
		fmt.Printf("    %-20s %s\n", u.Username, u.Role)
	}
}

func printRoster(c *client.Client) {
	for _, e := range c.Roster() {
		mode := "offline"
		if e.Online {
			mode = "online"
		}
		fmt.Printf("    %-20s %s\n", e.Username, mode)
	}
}

func reportErr(err error) {
	if err != nil {
		fmt.Println("* " + err.Error())
	}
}

func promptLine(stdin *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !stdin.Scan() {
		return ""
	}
	return strings.TrimSpace(stdin.Text())
}

// lateSender lets the bot middleware be built before the client exists.
type lateSender struct {
	mu sync.Mutex
	c  *client.Client
}

func (s *lateSender) set(c *client.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = c
}

func (s *lateSender) SendText(room, body string) error {
	s.mu.Lock()
	c := s.c
	s.mu.Unlock()
	if c == nil {
		return core.ErrNotConnected
	}
	return c.SendText(room, body)
}
