package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/lox/holdemgym/internal/randutil"
	"github.com/lox/holdemgym/internal/store"
)

// DatasetCmd inspects a transition store written by simulate --store.
type DatasetCmd struct {
	Store   string `arg:"" type:"existingfile" help:"SQLite transition store"`
	Episode string `short:"e" help:"Print every transition of one episode"`
	Sample  int    `short:"n" help:"Print this many transitions drawn at random"`
	Seed    *int64 `help:"Seed for --sample"`
}

func (c *DatasetCmd) Run(g *Globals) error {
	logger, err := g.logger(os.Stderr, "warn")
	if err != nil {
		return err
	}
	ctx := context.Background()
	st, err := store.Open(ctx, c.Store, logger)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "store", st.Close)

	sum, err := st.Summary(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", headerStyle.Render(c.Store))
	fmt.Printf("episodes: %d, transitions: %d, showdowns: %d, mean reward: %.4f\n",
		sum.Episodes, sum.Transitions, sum.Showdowns, sum.MeanReward)

	if c.Episode != "" {
		ep, err := st.Episode(ctx, c.Episode)
		if err != nil {
			return err
		}
		ts, err := st.Transitions(ctx, c.Episode)
		if err != nil {
			return err
		}
		fmt.Printf("\nepisode %s: seed %d, reward %+.4f, pot %d, showdown %t\n",
			ep.ID, ep.Seed, ep.Reward, ep.Pot, ep.Showdown)
		renderTransitions(os.Stdout, ts)
	}

	if c.Sample > 0 {
		var seed int64
		if c.Seed != nil {
			seed = *c.Seed
		}
		ts, err := st.Sample(ctx, c.Sample, randutil.New(randutil.SeedOrNow(seed)))
		if err != nil {
			return err
		}
		fmt.Println()
		renderTransitions(os.Stdout, ts)
	}
	return nil
}

func renderTransitions(out io.Writer, ts []store.Transition) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("episode"),
		headerStyle.Render("step"),
		headerStyle.Render("obs"),
		headerStyle.Render("action"),
		headerStyle.Render("reward"),
		headerStyle.Render("done"))
	for _, t := range ts {
		fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\t%+.4f\t%t\n",
			t.EpisodeID, t.Step, formatVector(t.Obs), t.Action, t.Reward, t.Done)
	}
	w.Flush()
}

func formatVector(v store.Vector) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', 3, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
