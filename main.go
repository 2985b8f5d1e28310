package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/chaperone/internal/providers"
	"github.com/baalimago/chaperone/internal/server"
	"github.com/baalimago/chaperone/internal/session"
	"github.com/baalimago/chaperone/internal/utils"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/go_away_boilerplate/pkg/shutdown"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const usage = `chaperone - conversation sessions on top of hosted and local language models

Prerequisites:
  - Set the GROQ_API_KEY environment variable for roles on the cloud-inference backend
  - Set the HF_API_KEY environment variable for roles on the remote-inference backend
  - (Optional) Set OLLAMA_HOST if ollama isn't listening on localhost:11434
  - (Optional) Put any of the above in a .env file in the working directory
  - (Optional) Install glow - https://github.com/charmbracelet/glow for formatted markdown output

Usage: chaperone [flags] <text>

Flags:
  -r, -role string          Set the role which should answer. (default '%v')
  -o, -owner string         Set the owner of the conversation. (default '%v')
  -s, -session string       Set the session key. A new one is generated and printed when omitted.
  -b, -backend string       Set the history backend, 'file' or 'remote'. (default '%v')
  -t, -transcript bool      Print the transcript of the session.
  -i, -interactive bool     Keep reading turns from the terminal until 'q', 'quit' or interrupt.
  -clear bool               Truncate the session to its priming turns.
  -roles bool               List the configured roles.
  -serve string             Serve sessions over HTTP on the given address, such as ':8080'.
  -raw bool                 Print raw output (don't attempt to use 'glow').
  -version bool             Print the version and the versions of all dependencies.

Roles, models and system prompts are configured in <config dir>/providersConfig.json,
where the config dir is $CHAPERONE_CONFIG_HOME or <user config dir>/.chaperone.

Examples:
  - chaperone -roles
  - chaperone -s my-session "Hi, who are you?"
  - chaperone -r enquiry_chatbot -s my-session "How many legs does a spider have?"
  - chaperone -s my-session -t
  - chaperone -b remote -serve :8080
`

// generatorFactory constructs the vendor adapters of the registry.
var generatorFactory providers.GeneratorFactory = providers.NewGenerator

func main() {
	ancli.SetupSlog()
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		ancli.PrintWarn(fmt.Sprintf("failed to load .env: %v\n", err))
	}

	conf, rest, err := parseFlags(defaultFlags, args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("%v\n", err))
		return 1
	}

	if conf.version {
		if err := printVersion(); err != nil {
			ancli.Errf("%v\n", err)
			return 1
		}
		return 0
	}

	configDir, err := utils.GetConfigDir()
	if err != nil {
		ancli.Errf("failed to find config dir path: %v\n", err)
		return 1
	}
	providersConf, err := utils.LoadConfigFromFile(configDir, providers.ConfigFileName, &providers.DEFAULT)
	if err != nil {
		ancli.Errf("failed to load provider config: %v\n", err)
		return 1
	}
	registry, err := providers.NewRegistryWithFactory(providersConf, generatorFactory)
	if err != nil {
		ancli.Errf("%v\n", err)
		return 1
	}
	if conf.listRoles {
		for _, role := range registry.Roles() {
			fmt.Println(role)
		}
		return 0
	}

	store, closeStore, err := openStore(conf.backend, configDir)
	if err != nil {
		ancli.Errf("%v\n", err)
		return 1
	}
	defer func() {
		if err := closeStore(); err != nil {
			ancli.PrintWarn(fmt.Sprintf("failed to close history: %v\n", err))
		}
	}()
	sess := session.New(store, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { shutdown.Monitor(cancel) }()

	if conf.serveAddr != "" {
		if err := server.Serve(ctx, conf.serveAddr, server.New(sess, registry.Roles).Router()); err != nil {
			ancli.Errf("%v\n", err)
			return 1
		}
		return 0
	}

	if conf.session == "" {
		if conf.clear || conf.transcript {
			ancli.PrintErr("a session key is required, set it with -s/-session\n")
			return 1
		}
		conf.session = uuid.NewString()
		ancli.Noticef("started session: '%v', continue it with: -s %v\n", conf.session, conf.session)
	}

	err = dispatch(ctx, sess, conf, strings.Join(rest, " "))
	if err != nil {
		if errors.Is(err, utils.ErrUserInitiatedExit) {
			ancli.Okf("Seems like you wanted out. Byebye!\n")
			return 0
		}
		ancli.PrintErr(fmt.Sprintf("%v\n", err))
		return 1
	}
	if misc.Truthy(os.Getenv("DEBUG")) {
		ancli.PrintOK("things seems to have worked out. Bye bye!\n")
	}
	return 0
}

func dispatch(ctx context.Context, sess *session.Session, conf configurations, text string) error {
	switch {
	case conf.clear:
		if err := sess.Clear(ctx, conf.owner, conf.session); err != nil {
			return err
		}
		ancli.Okf("cleared session: '%v'\n", conf.session)
		return nil
	case conf.transcript:
		tr, err := sess.Transcript(ctx, conf.owner, conf.session)
		if err != nil {
			return err
		}
		return utils.PrintTranscript(tr, conf.owner, conf.printRaw)
	case conf.interactive:
		return interact(ctx, sess, conf, text)
	}
	if text == "" {
		return fmt.Errorf("nothing to say, see 'chaperone -h' for usage")
	}
	return converse(ctx, sess, conf, text)
}

func converse(ctx context.Context, sess *session.Session, conf configurations, text string) error {
	reply, err := sess.HandleTurn(ctx, conf.owner, conf.session, conf.role, text)
	if err != nil {
		return err
	}
	return utils.AttemptPrettyPrint(models.Message{Role: conf.role, Content: reply}, conf.owner, conf.printRaw)
}

// interact answers text, if any, then keeps reading turns from the terminal.
// Failed turns are reported and the conversation goes on, unless the role
// itself can't be used.
func interact(ctx context.Context, sess *session.Session, conf configurations, text string) error {
	for {
		if text != "" {
			err := converse(ctx, sess, conf, text)
			if errors.Is(err, models.ErrConfiguration) {
				return err
			}
			if err != nil {
				ancli.PrintErr(fmt.Sprintf("%v\n", err))
			}
		}
		if ctx.Err() != nil {
			return utils.ErrUserInitiatedExit
		}
		fmt.Printf("%v: ", ancli.ColoredMessage(ancli.CYAN, conf.owner))
		var err error
		text, err = utils.ReadUserInput()
		if err != nil {
			return err
		}
	}
}
