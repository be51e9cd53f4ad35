package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/appblock/internal/api/grpc/rpc"
	"github.com/dtroode/appblock/internal/config"
	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/rules"
	"github.com/dtroode/appblock/internal/service"
	storage "github.com/dtroode/appblock/internal/storage/minio"
	"github.com/dtroode/appblock/internal/token"
)

var (
	errPasswordRequired = errors.New("-password is required")
	errEmailRequired    = errors.New("-email is required")
	errCodeRequired     = errors.New("-code is required")
	errFileRequired     = errors.New("-file is required")
)

var (
	good = color.New(color.FgGreen)
	warn = color.New(color.FgYellow)
	bold = color.New(color.Bold)
)

// client holds the connection flags shared by every remote command.
type client struct {
	addr    string
	token   string
	caFile  string
	timeout time.Duration
	out     io.Writer
}

func (c *client) call(ctx context.Context, f func(ctx context.Context, control *rpc.ControlClient) error) error {
	creds := insecure.NewCredentials()
	if c.caFile != "" {
		tlsCreds, err := credentials.NewClientTLSFromFile(c.caFile, "")
		if err != nil {
			return fmt.Errorf("failed to load CA certificate: %w", err)
		}
		creds = tlsCreds
	}

	conn, err := grpc.NewClient(c.addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}

	return f(ctx, rpc.NewControlClient(conn))
}

func buildCLI(out io.Writer) *ffcli.Command {
	c := &client{out: out}

	rootFlagSet := flag.NewFlagSet("blockctl", flag.ExitOnError)
	rootFlagSet.StringVar(&c.addr, "addr", "127.0.0.1:50051", "daemon gRPC address")
	rootFlagSet.StringVar(&c.token, "token", "", "control token (see blockctl token)")
	rootFlagSet.StringVar(&c.caFile, "ca", "", "CA certificate; enables TLS")
	rootFlagSet.DurationVar(&c.timeout, "timeout", 10*time.Second, "request timeout")

	return &ffcli.Command{
		ShortUsage: "blockctl [flags] <subcommand>",
		ShortHelp:  "Control the appblock daemon",
		LongHelp:   "Flags may also be set as BLOCKCTL_ADDR, BLOCKCTL_TOKEN, BLOCKCTL_CA and BLOCKCTL_TIMEOUT.",
		FlagSet:    rootFlagSet,
		Options:    []ff.Option{ff.WithEnvVarPrefix("BLOCKCTL")},
		Subcommands: []*ffcli.Command{
			statusCommand(c),
			onCommand(c),
			offCommand(c),
			recoverCommand(c),
			registerCommand(c),
			verifyCommand(c),
			cancelCommand(c),
			tokenCommand(out),
			rulesCommand(out),
		},
		Exec: func(context.Context, []string) error { return flag.ErrHelp },
	}
}

func statusCommand(c *client) *ffcli.Command {
	return &ffcli.Command{
		Name:       "status",
		ShortUsage: "blockctl status",
		ShortHelp:  "Show blocking, email and permission status",
		Exec: func(ctx context.Context, _ []string) error {
			return c.call(ctx, func(ctx context.Context, control *rpc.ControlClient) error {
				st, err := control.GetStatus(ctx)
				if err != nil {
					return err
				}
				printStatus(c.out, st)
				return nil
			})
		},
	}
}

func onCommand(c *client) *ffcli.Command {
	fs := flag.NewFlagSet("blockctl on", flag.ExitOnError)
	password := fs.String("password", "", "new unlock password (8-14 letters or digits)")

	return &ffcli.Command{
		Name:       "on",
		ShortUsage: "blockctl on -password <password>",
		ShortHelp:  "Set the unlock password and turn blocking on",
		FlagSet:    fs,
		Exec: func(ctx context.Context, _ []string) error {
			if *password == "" {
				return errPasswordRequired
			}
			return c.call(ctx, func(ctx context.Context, control *rpc.ControlClient) error {
				if err := control.TurnOn(ctx, *password); err != nil {
					return err
				}
				good.Fprintln(c.out, "Blocking is on")
				return nil
			})
		},
	}
}

func offCommand(c *client) *ffcli.Command {
	fs := flag.NewFlagSet("blockctl off", flag.ExitOnError)
	password := fs.String("password", "", "unlock password")

	return &ffcli.Command{
		Name:       "off",
		ShortUsage: "blockctl off -password <password>",
		ShortHelp:  "Turn blocking off",
		FlagSet:    fs,
		Exec: func(ctx context.Context, _ []string) error {
			if *password == "" {
				return errPasswordRequired
			}
			return c.call(ctx, func(ctx context.Context, control *rpc.ControlClient) error {
				matched, err := control.TurnOff(ctx, *password)
				if err != nil {
					return err
				}
				if !matched {
					warn.Fprintln(c.out, "Wrong password. Run blockctl recover to get a new one by email.")
					return nil
				}
				good.Fprintln(c.out, "Blocking is off")
				return nil
			})
		},
	}
}

func recoverCommand(c *client) *ffcli.Command {
	return &ffcli.Command{
		Name:       "recover",
		ShortUsage: "blockctl recover",
		ShortHelp:  "Email a new unlock password to the registered address",
		Exec: func(ctx context.Context, _ []string) error {
			return c.call(ctx, func(ctx context.Context, control *rpc.ControlClient) error {
				if err := control.RecoverPassword(ctx); err != nil {
					return err
				}
				good.Fprintln(c.out, "A new password was sent to your email")
				return nil
			})
		},
	}
}

func registerCommand(c *client) *ffcli.Command {
	fs := flag.NewFlagSet("blockctl register", flag.ExitOnError)
	email := fs.String("email", "", "address to verify")

	return &ffcli.Command{
		Name:       "register",
		ShortUsage: "blockctl register -email <address>",
		ShortHelp:  "Send a verification code to an email address",
		FlagSet:    fs,
		Exec: func(ctx context.Context, _ []string) error {
			if *email == "" {
				return errEmailRequired
			}
			return c.call(ctx, func(ctx context.Context, control *rpc.ControlClient) error {
				remaining, err := control.SendVerificationEmail(ctx, *email)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Code sent to %s. Run blockctl verify within %ds.\n", *email, remaining)
				return nil
			})
		},
	}
}

func verifyCommand(c *client) *ffcli.Command {
	fs := flag.NewFlagSet("blockctl verify", flag.ExitOnError)
	code := fs.String("code", "", "6-digit code from the email")

	return &ffcli.Command{
		Name:       "verify",
		ShortUsage: "blockctl verify -code <code>",
		ShortHelp:  "Confirm the emailed code",
		FlagSet:    fs,
		Exec: func(ctx context.Context, _ []string) error {
			if *code == "" {
				return errCodeRequired
			}
			return c.call(ctx, func(ctx context.Context, control *rpc.ControlClient) error {
				verified, err := control.VerifyOtp(ctx, *code)
				if err != nil {
					return err
				}
				if !verified {
					warn.Fprintln(c.out, "The code does not match")
					return nil
				}
				good.Fprintln(c.out, "Email registered")
				return nil
			})
		},
	}
}

func cancelCommand(c *client) *ffcli.Command {
	return &ffcli.Command{
		Name:       "cancel",
		ShortUsage: "blockctl cancel",
		ShortHelp:  "Abandon the pending email verification",
		Exec: func(ctx context.Context, _ []string) error {
			return c.call(ctx, func(ctx context.Context, control *rpc.ControlClient) error {
				return control.CancelVerification(ctx)
			})
		},
	}
}

// tokenCommand mints a control token locally from JWT_SECRET.
func tokenCommand(out io.Writer) *ffcli.Command {
	return &ffcli.Command{
		Name:       "token",
		ShortUsage: "blockctl token",
		ShortHelp:  "Issue a control token from the daemon's JWT_SECRET",
		Exec: func(ctx context.Context, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}

			tokens := service.NewTokenService(token.NewJWT(cfg.JWT.Secret, cfg.JWT.ClientTTL), logger.NewWithWriter(os.Stderr, cfg.LogLevel))
			_, tok, err := tokens.Issue(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, tok)
			return nil
		},
	}
}

func rulesCommand(out io.Writer) *ffcli.Command {
	checkFlagSet := flag.NewFlagSet("blockctl rules check", flag.ExitOnError)
	checkFile := checkFlagSet.String("file", "", "rules document")

	check := &ffcli.Command{
		Name:       "check",
		ShortUsage: "blockctl rules check -file <rules.yaml>",
		ShortHelp:  "Validate a rules document",
		FlagSet:    checkFlagSet,
		Exec: func(_ context.Context, _ []string) error {
			r, _, err := readRules(*checkFile)
			if err != nil {
				return err
			}
			printRules(out, r)
			return nil
		},
	}

	pushFlagSet := flag.NewFlagSet("blockctl rules push", flag.ExitOnError)
	pushFile := pushFlagSet.String("file", "", "rules document")

	push := &ffcli.Command{
		Name:       "push",
		ShortUsage: "blockctl rules push -file <rules.yaml>",
		ShortHelp:  "Validate a rules document and upload it to the MINIO_* bucket",
		FlagSet:    pushFlagSet,
		Exec: func(ctx context.Context, _ []string) error {
			r, data, err := readRules(*pushFile)
			if err != nil {
				return err
			}

			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			client, err := storage.Connect(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.UseSSL)
			if err != nil {
				return err
			}
			if err := client.Upload(ctx, cfg.Rules.Object, bytes.NewReader(data), int64(len(data))); err != nil {
				return err
			}

			printRules(out, r)
			good.Fprintf(out, "Uploaded to %s/%s\n", cfg.Storage.Bucket, cfg.Rules.Object)
			return nil
		},
	}

	return &ffcli.Command{
		Name:        "rules",
		ShortUsage:  "blockctl rules <subcommand>",
		ShortHelp:   "Manage detection rules",
		LongHelp:    "configs/rules.example.yaml is a starting point for a custom rules document.",
		Subcommands: []*ffcli.Command{check, push},
		Exec:        func(context.Context, []string) error { return flag.ErrHelp },
	}
}

func readRules(path string) (rules.Rules, []byte, error) {
	if path == "" {
		return rules.Rules{}, nil, errFileRequired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rules.Rules{}, nil, err
	}
	r, err := rules.Parse(data)
	if err != nil {
		return rules.Rules{}, nil, err
	}
	return r, data, nil
}

func printRules(out io.Writer, r rules.Rules) {
	bold.Fprintf(out, "Target:  ")
	fmt.Fprintln(out, r.TargetPackage)
	bold.Fprintf(out, "Button:  ")
	fmt.Fprintln(out, r.ButtonLabel)
	bold.Fprintf(out, "Markers: ")
	fmt.Fprintf(out, "%d web page, %d search page\n", len(r.WebPageMarkers), len(r.SearchPageMarkers))
}

func printStatus(out io.Writer, st *structpb.Struct) {
	f := st.GetFields()

	line := func(label string, ok bool, yes, no string) {
		bold.Fprintf(out, "%-17s", label+":")
		if ok {
			good.Fprintln(out, yes)
		} else {
			warn.Fprintln(out, no)
		}
	}

	line("Blocking", f["block_enabled"].GetBoolValue(), "on", "off")
	line("Email", f["email_registered"].GetBoolValue(), "registered", "not registered")
	step := f["permission_step"].GetStringValue()
	line("Permissions", step == "done", "granted", "waiting for "+step)
	line("Platform shim", f["bridge_attached"].GetBoolValue(), "attached", "not attached")

	if phase := f["verification"].GetStringValue(); phase != "" && phase != "idle" {
		bold.Fprintf(out, "%-17s", "Verification:")
		fmt.Fprintf(out, "%s %s (%ds left)\n",
			phase,
			f["verification_email"].GetStringValue(),
			int(f["remaining_seconds"].GetNumberValue()))
	}
}
