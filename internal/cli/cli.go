// Package cli implements the tavern command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/tavern/internal/adapters/mcp"
	service "github.com/okian/tavern/internal/app"
	"github.com/okian/tavern/internal/domain/catalog"
	"github.com/okian/tavern/internal/domain/encounter"
	"github.com/okian/tavern/internal/loadtest"
	"github.com/okian/tavern/pkg/logger"
	"github.com/urfave/cli/v3"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage error")

// App holds the output streams shared by every command.
type App struct {
	out     io.Writer
	errOut  io.Writer
	version string
}

// New builds the root command. Results go to out; logs go to errOut so that
// serve-mcp keeps stdout for the protocol.
func New(out, errOut io.Writer, version string) *cli.Command {
	a := &App{out: out, errOut: errOut, version: version}
	return &cli.Command{
		Name:    "tavern",
		Usage:   "D&D 5e encounter difficulty tools",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "YAML monster catalog replacing the built-in one",
				Sources: cli.EnvVars("TAVERN_CATALOG_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "debug, info, warn or error",
				Sources: cli.EnvVars("TAVERN_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			a.evaluateCommand(),
			a.monstersCommand(),
			a.tablesCommand(),
			a.serveMCPCommand(),
			a.loadtestCommand(),
		},
	}
}

// service initializes logging and builds a service for one command.
func (a *App) service(cmd *cli.Command) (*service.Service, error) {
	root := cmd.Root()
	if err := logger.Init(logger.WithWriter(a.errOut), logger.WithLevel(root.String("log-level"))); err != nil {
		return nil, err
	}
	opts := []service.Option{service.WithLogger(logger.Named("cli"))}
	if path := root.String("catalog"); path != "" {
		c, err := catalog.LoadFile(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithCatalog(c))
	}
	return service.New(opts...), nil
}

func (a *App) evaluateCommand() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "rate an encounter",
		Description: `Each --monster is a challenge rating with an optional count ("1/4x3", "2"),
or a catalog name with an optional count ("goblin:4", "owlbear").`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "level", Aliases: []string{"l"}, Usage: "character level, repeat or comma-separate for each member"},
			&cli.StringSliceFlag{Name: "monster", Aliases: []string{"m"}, Usage: "monster group"},
			&cli.BoolFlag{Name: "json", Usage: "print the result as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			party, err := parseLevels(cmd.StringSlice("level"))
			if err != nil {
				return err
			}
			monsters := make([]encounter.MonsterGroup, 0, len(cmd.StringSlice("monster")))
			for _, raw := range cmd.StringSlice("monster") {
				g, err := parseMonster(ctx, svc, raw)
				if err != nil {
					return err
				}
				monsters = append(monsters, g)
			}
			res, err := svc.Evaluate(ctx, party, monsters)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return a.printJSON(res)
			}
			_, err = io.WriteString(a.out, res.Summary())
			return err
		},
	}
}

func (a *App) monstersCommand() *cli.Command {
	return &cli.Command{
		Name:  "monsters",
		Usage: "browse the monster catalog",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "find monsters by name",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "limit", Value: "0", Usage: "maximum results (0 for the configured cap)"},
					&cli.BoolFlag{Name: "json", Usage: "print results as JSON"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, err := a.service(cmd)
					if err != nil {
						return err
					}
					limit, err := nonNegative(cmd.String("limit"), "--limit")
					if err != nil {
						return err
					}
					query := strings.Join(cmd.Args().Slice(), " ")
					found, suggestions := svc.SearchMonsters(ctx, query, limit)
					if cmd.Bool("json") {
						return a.printJSON(map[string][]catalog.Monster{"monsters": found, "suggestions": suggestions})
					}
					switch {
					case len(found) > 0:
						a.printMonsters(found)
					case len(suggestions) > 0:
						fmt.Fprintf(a.out, "No monster matches %q. Did you mean:\n", query)
						a.printMonsters(suggestions)
					default:
						fmt.Fprintf(a.out, "No monster matches %q.\n", query)
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "show one monster",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() == 0 {
						return fmt.Errorf("%w: monster name required", ErrUsage)
					}
					svc, err := a.service(cmd)
					if err != nil {
						return err
					}
					m, err := svc.LookupMonster(ctx, strings.Join(cmd.Args().Slice(), " "))
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "%s\nCR %s (%d XP)\n", m.Name, m.ChallengeRating, m.XP())
					if m.Size != "" || m.Type != "" {
						fmt.Fprintf(a.out, "%s %s\n", m.Size, m.Type)
					}
					fmt.Fprintln(a.out, catalog.ReferenceURL(m.Name))
					return nil
				},
			},
		},
	}
}

func (a *App) tablesCommand() *cli.Command {
	return &cli.Command{
		Name:  "tables",
		Usage: "print XP by challenge rating and the level thresholds",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Fprintln(a.out, "CR     XP")
			for _, row := range encounter.XPTable() {
				fmt.Fprintf(a.out, "%-4s %7d\n", row.ChallengeRating, row.XP)
			}
			fmt.Fprintln(a.out, "\nLevel  Easy  Medium  Hard  Deadly")
			for _, row := range encounter.ThresholdTable() {
				t := row.Thresholds
				fmt.Fprintf(a.out, "%5d %5d %7d %5d %7d\n", row.Level, t.Easy, t.Medium, t.Hard, t.Deadly)
			}
			return nil
		},
	}
}

func (a *App) serveMCPCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve-mcp",
		Usage: "serve the encounter tools over MCP stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			logger.Get().Info(ctx, "serving MCP over stdio", logger.String("version", a.version))
			return mcp.NewServer(svc, a.version).ServeStdio()
		},
	}
}

func (a *App) loadtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "loadtest",
		Usage: "fire random encounters at a running server and verify the answers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "server base URL", Sources: cli.EnvVars("TAVERN_URL")},
			&cli.StringFlag{Name: "encounters", Aliases: []string{"n"}, Value: strconv.Itoa(loadtest.DefaultEncounters), Usage: "encounters to generate"},
			&cli.StringFlag{Name: "workers", Aliases: []string{"w"}, Value: strconv.Itoa(loadtest.DefaultWorkers), Usage: "concurrent workers"},
			&cli.StringFlag{Name: "seed", Value: "0", Usage: "generator seed, 0 for random"},
			&cli.DurationFlag{Name: "timeout", Value: loadtest.DefaultTimeout, Usage: "per-request timeout"},
			&cli.StringFlag{Name: "out", Usage: "write generated encounters to this JSON file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := logger.Init(logger.WithWriter(a.errOut), logger.WithLevel(cmd.Root().String("log-level"))); err != nil {
				return err
			}
			n, err := nonNegative(cmd.String("encounters"), "--encounters")
			if err != nil {
				return err
			}
			workers, err := nonNegative(cmd.String("workers"), "--workers")
			if err != nil {
				return err
			}
			seed, err := strconv.ParseUint(cmd.String("seed"), 10, 64)
			if err != nil {
				return fmt.Errorf("%w: seed %q is not a number", ErrUsage, cmd.String("seed"))
			}

			stats, err := loadtest.Run(ctx, loadtest.Config{
				BaseURL:    strings.TrimRight(cmd.String("url"), "/"),
				Encounters: n,
				Workers:    workers,
				Timeout:    cmd.Duration("timeout"),
				Seed:       seed,
				OutputFile: cmd.String("out"),
			})
			fmt.Fprintf(a.out, "submitted %d, matched %d, mismatched %d, failed %d in %s (%.1f/s)\n",
				stats.Submitted, stats.Matched, stats.Mismatched, stats.Failed,
				stats.Duration.Round(time.Millisecond), stats.Rate())
			for _, d := range encounter.Difficulties() {
				fmt.Fprintf(a.out, "  %-7s %d\n", d, stats.ByDiff[d])
			}
			return err
		},
	}
}

func nonNegative(raw, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrUsage, name)
	}
	return n, nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printMonsters(ms []catalog.Monster) {
	for _, m := range ms {
		fmt.Fprintf(a.out, "%-28s CR %-4s %6d XP\n", m.Name, m.ChallengeRating, m.XP())
	}
}

func parseLevels(raw []string) ([]encounter.PartyMember, error) {
	party := make([]encounter.PartyMember, 0, len(raw))
	for _, s := range raw {
		level, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: level %q is not a number", ErrUsage, s)
		}
		party = append(party, encounter.PartyMember{Level: level})
	}
	return party, nil
}

// monsterLookup resolves catalog names.
type monsterLookup interface {
	LookupMonster(ctx context.Context, name string) (catalog.Monster, error)
}

// parseMonster reads "CRxCOUNT", "CR", "NAME:COUNT" or "NAME".
func parseMonster(ctx context.Context, lookup monsterLookup, raw string) (encounter.MonsterGroup, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return encounter.MonsterGroup{}, fmt.Errorf("%w: empty monster", ErrUsage)
	}

	if i := strings.LastIndex(raw, ":"); i >= 0 {
		count, err := strconv.Atoi(strings.TrimSpace(raw[i+1:]))
		if err != nil {
			return encounter.MonsterGroup{}, fmt.Errorf("%w: bad count in %q", ErrUsage, raw)
		}
		return byName(ctx, lookup, raw[:i], count)
	}

	if i := strings.LastIndex(raw, "x"); i > 0 {
		cr, crErr := encounter.ParseChallengeRating(raw[:i])
		count, countErr := strconv.Atoi(raw[i+1:])
		if crErr == nil && countErr == nil {
			return encounter.MonsterGroup{ChallengeRating: cr, Count: count}, nil
		}
	}

	if cr, err := encounter.ParseChallengeRating(raw); err == nil {
		return encounter.MonsterGroup{ChallengeRating: cr, Count: 1}, nil
	}
	return byName(ctx, lookup, raw, 1)
}

func byName(ctx context.Context, lookup monsterLookup, name string, count int) (encounter.MonsterGroup, error) {
	m, err := lookup.LookupMonster(ctx, strings.TrimSpace(name))
	if err != nil {
		return encounter.MonsterGroup{}, err
	}
	return encounter.MonsterGroup{ChallengeRating: m.ChallengeRating, Count: count}, nil
}
